// Package cache provee un cache chico de bytes con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, go-cache)
//   - Redis (distribuido)
//
// El único uso en el servicio es cachear estados de revocación Revoked en
// el endpoint público de status: revoked es terminal (no existe transición
// de vuelta a active), así que cachearlo nunca puede mostrar un estado
// desactualizado. NotRevoked no se cachea jamás.
package cache

import "time"

type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}
