package config

// Defaults de política de emisión. Todo es sobreescribible por YAML o env;
// estos valores existen para que un dev pueda levantar el servicio sin
// config y emitir tokens con una política razonable.

var defaultSupportedModels = []string{
	"gpt-4-turbo",
	"gpt-3.5-turbo",
	"claude-3-opus-20240229",
	"claude-3-sonnet-20240229",
	"gemini-1.5-pro-latest",
	"meta-llama/Meta-Llama-3-70B-Instruct",
	"mistralai/Mistral-7B-Instruct-v0.2",
	"mistralai/Mixtral-8x7B-Instruct-v0.1",
	"command-r-plus",
	"HuggingFaceH4/zephyr-7b-alpha",
	"openchat/openchat-3.5-0106",
	"microsoft/phi-2",
}

var defaultStandardPermissions = []string{
	"read:articles_all",
	"read:articles_topic_tech",
	"read:user_profile_basic",
	"summarize:text_content_short",
	"summarize:text_content_long",
	"analyze:sentiment_text",
	"interact:chatbot_basic",
	"kms:read_secret_group_A",
}

var defaultTrustTags = map[string]string{
	"issuer_assurance":  "poc_development_level",
	"agent_environment": "simulated_user_poc",
}

var defaultAllowedTrustTagKeys = []string{
	"user_verification_level",
	"issuer_assurance",
	"agent_environment",
	"data_processing_region",
}
