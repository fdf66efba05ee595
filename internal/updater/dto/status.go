// Package dto defines the response payloads of the status API.
package dto

import "github.com/hiyoco-of-piyo/sedori-auto/internal/entity"

// StatusResponse is the body of GET /api/v1/status. Progress is the last
// checkpoint written by a run, or an empty object when no run has ever
// been recorded.
type StatusResponse struct {
	Progress *entity.JobProgress `json:"progress"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
