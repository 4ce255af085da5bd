// Package translation provides the word translators used by clip lookups:
// an OpenAI chat-completion translator, a Gemini translator and an
// in-memory translation cache.
package translation
