package gateway

import "fmt"

const (
	DefaultLanguage = "English"

	hypothesisTemperature  float32 = 0.7
	chatTemperature        float32 = 0.8
	compressionTemperature float32 = 0.1

	hypothesisFallback     = "I'm sorry, I couldn't synthesize a proper response. Please try rephrasing your genomic query."
	hypothesisErrorPrefix  = "[System Error]: "
	hypothesisErrorDefault = "Failed to connect to the reasoning engine."
	compressionFailure     = "Compression logic interrupted. Please check input density."

	videoCount       int32 = 1
	videoResolution        = "720p"
	videoAspectRatio       = "16:9"
)

// ChatLanguages are the languages offered to chat callers. Other values are accepted as-is.
var ChatLanguages = []string{
	"English",
	"Hindi (हिन्दी)",
	"Bengali (বাংলা)",
	"Telugu (తెలుగు)",
	"Tamil (தமிழ்)",
	"Marathi (मराठी)",
	"Kannada (ಕನ್ನಡ)",
}

func hypothesisInstruction(language string) string {
	return fmt.Sprintf(`Your name is Gene. You are the high-level ScaleDown Genomic Research Assistant.
Core Mission: Resolve any genomic query with high-throughput multi-omics synthesis and semantic reasoning.

Language Protocol:
- You are fluently multilingual in ALL Indian languages (Hindi, Bengali, Telugu, Marathi, Tamil, Urdu, Gujarati, Kannada, Odia, Malayalam, Punjabi, etc.).
- User language preference: %s.
- If the user asks in an Indian language, respond perfectly in that language.

Technical Protocol:
- Reference RSIDs, HGNC symbols, and Pathway IDs.
- Use "Semantic Genomic Compression" logic: explain how large datasets are clumped into latent features.
- Provide "VEP" (Variant Effect Predictor) insights for mutations.
- Be helpful, accurate, and research-grade.`, language)
}

func chatInstruction(language string) string {
	return fmt.Sprintf(`Your name is Gene. You are the ScaleDown project's flagship AI.
You help everyone from students to lead bioinformaticians.
You support all Indian languages flawlessly.
Current language preference: %s.
Always keep the conversation genomic-focused but accessible when needed.
Help users resolve queries about the ScaleDown framework, VEP, GWAS, and multi-omics.`, language)
}

func compressionPrompt(data string) string {
	return fmt.Sprintf(`Perform Semantic Genomic Compression on this data.
1. Identify key variants. 2. Map to latent pathways. 3. Summarize features.
Target: 85%% token reduction while preserving significance.
Data: %s`, data)
}

func videoPrompt(topic string) string {
	return fmt.Sprintf("Cinematic 3D animation: %s. Educational, scientific, cellular level detail.", topic)
}

func languageOrDefault(language string) string {
	if language == "" {
		return DefaultLanguage
	}
	return language
}
