package types

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// QnAPair is one answered question submitted for merging
type QnAPair struct {
	QuestionID string `json:"questionId,omitempty"`
	Question   string `json:"question" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}

// MergeTextRequest is the body of a free-text merge
type MergeTextRequest struct {
	Text string `json:"text" validate:"required"`
}

// MergeQnARequest is the body of a batch Q&A merge
type MergeQnARequest struct {
	Pairs []QnAPair `json:"pairs" validate:"required,min=1,dive"`
}

// ScoreProjectsRequest is the body of a relevance scoring request
type ScoreProjectsRequest struct {
	Role string `json:"role" validate:"required"`
}

// ImportProjectsRequest is the body of an external project import.
// Either Repos or Token must be supplied; Token is used to list the user's repositories.
type ImportProjectsRequest struct {
	Repos []ExternalRepo `json:"repos,omitempty"`
	Token string         `json:"token,omitempty" validate:"required_without=Repos"`
}

// GenerateResumeRequest is the body of a resume generation request
type GenerateResumeRequest struct {
	JobDescription string `json:"jobDescription,omitempty"`
}

// TailorResumeRequest is the body of a resume tailoring request
type TailorResumeRequest struct {
	JobDescription string `json:"jobDescription" validate:"required,min=20"`
}

// Validate validates the QnAPair using the validator.
func (r *QnAPair) Validate() error {
	return validate.Struct(r)
}

// Validate validates the MergeTextRequest using the validator.
func (r *MergeTextRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the MergeQnARequest using the validator.
func (r *MergeQnARequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the ScoreProjectsRequest using the validator.
func (r *ScoreProjectsRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the ImportProjectsRequest using the validator.
func (r *ImportProjectsRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the TailorResumeRequest using the validator.
func (r *TailorResumeRequest) Validate() error {
	return validate.Struct(r)
}
