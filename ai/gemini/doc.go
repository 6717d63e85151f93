// Package gemini implements ai.Extractor against the Gemini generateContent
// REST endpoint.
//
// Requests go to {Host}/models/{model}:generateContent with the API key as a
// query parameter. Generation runs with the configured temperature and
// output cap, topK 1 and topP 1.
//
// Finish reasons map onto ai.FinishReason as follows:
//
//   - STOP: ai.FinishStop
//   - MAX_TOKENS: ai.FinishLength (the decoder repairs truncated arrays)
//   - SAFETY, RECITATION: ai.FinishBlocked (decodes to no items)
//   - anything else: ai.FinishOther
package gemini
