// Package keys es el dueño exclusivo del par de firma Ed25519 del servicio.
//
// Persistencia: PEM en disco (privada PKCS8 sin encriptar con 0600, pública
// SPKI con 0644), escritas con write-then-rename para que una generación
// concurrente desde otro proceso no pueda dejar archivos corruptos.
//
// Ciclo de vida: Unloaded → Loaded (una vez por proceso), con reload solo
// vía Load(force=true). Cualquier fallo de lectura/parseo es fatal para el
// arranque: una identidad de firma corrupta no se trabaja alrededor.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/util/atomicwrite"
)

const (
	privateKeyFile = "atk_private_key.pem"
	publicKeyFile  = "atk_public_key.pem"

	privatePEMType = "PRIVATE KEY"
	publicPEMType  = "PUBLIC KEY"
)

var (
	// ErrKeyLoad envuelve cualquier fallo de carga. El caller (main)
	// debe tratarlo como fatal.
	ErrKeyLoad = errors.New("signing key load failed")
)

// Manager mantiene el par de firma y el JWKS derivado.
// Después de un Load exitoso, Signer/JWKS son lecturas concurrentes
// sin sincronización adicional (el RWMutex solo protege la carga).
type Manager struct {
	dir string
	kid string

	mu     sync.RWMutex
	loaded bool
	priv   ed25519.PrivateKey
	pub    ed25519.PublicKey
	jwks   JWKS
	jwksRaw []byte
}

func NewManager(dir, kid string) *Manager {
	return &Manager{dir: dir, kid: kid}
}

// Load carga (o genera) el par de firma. Idempotente: si ya está cargado
// y force es false, no hace nada. Con force=true relee el disco y
// recomputa el JWKS (única transición de reload permitida).
func (m *Manager) Load(force bool) error {
	m.mu.RLock()
	if m.loaded && !force {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded && !force {
		return nil
	}

	log := logger.Named("keys")

	if err := m.ensureOnDisk(); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyLoad, err)
	}

	priv, err := m.readPrivate()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyLoad, err)
	}
	pub, err := m.readPublic()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyLoad, err)
	}

	// La pública del disco tiene que ser la derivada de la privada;
	// un mismatch significa archivos mezclados de pares distintos.
	derived := priv.Public().(ed25519.PublicKey)
	if !derived.Equal(pub) {
		return fmt.Errorf("%w: public key on disk does not match private key", ErrKeyLoad)
	}

	// Solo asignar si todos los pasos anteriores salieron bien
	m.priv = priv
	m.pub = pub
	m.jwks = buildJWKS(pub, m.kid)
	m.jwksRaw = m.jwks.JSON()
	m.loaded = true

	log.Info("signing keys loaded", logger.KID(m.kid), logger.String("dir", m.dir))
	return nil
}

// Signer devuelve la clave privada de firma y su kid, cargando lazy si
// hace falta. La clave devuelta no debe persistirse ni loguearse.
func (m *Manager) Signer() (ed25519.PrivateKey, string, error) {
	if err := m.Load(false); err != nil {
		return nil, "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.priv, m.kid, nil
}

// JWKS devuelve el set de claves públicas, cargando lazy si hace falta.
func (m *Manager) JWKS() (JWKS, error) {
	if err := m.Load(false); err != nil {
		return JWKS{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jwks, nil
}

// JWKSJSON devuelve el JWKS ya serializado (cacheado desde el load).
func (m *Manager) JWKSJSON() ([]byte, error) {
	if err := m.Load(false); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jwksRaw, nil
}

// ensureOnDisk genera y persiste un par nuevo si falta alguno de los dos
// archivos. La escritura es atómica archivo por archivo; dos procesos
// arrancando a la vez pueden generar en paralelo pero ninguno ve un PEM
// a medio escribir.
func (m *Manager) ensureOnDisk() error {
	privPath := filepath.Join(m.dir, privateKeyFile)
	pubPath := filepath.Join(m.dir, publicKeyFile)

	if fileExists(privPath) && fileExists(pubPath) {
		return nil
	}

	log := logger.Named("keys")
	log.Info("signing keys not found, generating new Ed25519 pair", logger.String("dir", m.dir))

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate ed25519: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("marshal pkcs8: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return fmt.Errorf("marshal spki: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: privatePEMType, Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: publicPEMType, Bytes: pubDER})

	if err := atomicwrite.AtomicWriteFile(privPath, privPEM, 0600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := atomicwrite.AtomicWriteFile(pubPath, pubPEM, 0644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	log.Info("new signing keys saved", logger.String("dir", m.dir))
	return nil
}

func (m *Manager) readPrivate() (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(filepath.Join(m.dir, privateKeyFile))
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != privatePEMType {
		return nil, errors.New("private key: invalid PEM")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkcs8: %w", err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not Ed25519")
	}
	return priv, nil
}

func (m *Manager) readPublic() (ed25519.PublicKey, error) {
	raw, err := os.ReadFile(filepath.Join(m.dir, publicKeyFile))
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != publicPEMType {
		return nil, errors.New("public key: invalid PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse spki: %w", err)
	}
	pub, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("public key is not Ed25519")
	}
	return pub, nil
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
