// Package server implements the HTTP front end of the nutrition label checker.
//
// Routes are registered on a gin engine:
//
//   - GET  /                      landing page
//   - GET  /nutrition?disease=    label upload page, optional condition preselected
//   - POST /upload                multipart "image" (+ optional "disease"), JSON result
//   - GET|POST /<predictor>       predictor form; diabetes, heart-disease, parkinsons
//   - POST /api/predict/:name     JSON variant of the predictor forms
//   - GET  /health                OCR engine and model status
//   - GET  /static/*              embedded stylesheet and upload script
//
// # Upload Pipeline
//
// An upload is stored under a random name, decoded, binarized and passed to
// the OCR engine. The text is parsed for the eight label nutrients and each
// reading is compared with the limit table of the requested condition:
//
//	{
//	  "nutrition":  {"Total Fat": 5, "Sodium": 0.14},
//	  "validation": {"Total Fat": true, "Sodium": true},
//	  "disease":    "heart"
//	}
//
// An image that cannot be decoded or read yields empty maps with status 200.
//
// # Error Handling
//
// Errors are returned as {"error": "<message>"}; validation failures of the
// JSON predictor API add a "details" array of {"path", "info"} entries.
// Predictor forms render their error inline and use status 400 for invalid
// input and 503 when the model is unavailable or fails.
package server
