package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id             string            `json:"id" example:"4f9c1a52-1a77-4a51-9a0e-5b0b6f3e2d11"`
	ConversationId string            `json:"conversation_id" example:"0d6f2f7e-38a4-4d4b-8f43-9d0c3b0a7c55"`
	Result         Result            `json:"result"`
	Error          *JobOutgoingError `json:"error,omitempty"`
	StartTime      time.Time         `json:"start_time"`
	EndTime        time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"Conversation not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type AnswerResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Intent   string   `json:"intent,omitempty" example:"TECHNICAL_PROCEDURE"`
	Sources  []string `json:"sources"`
}

type Result struct {
	Status string          `json:"status" example:"COMPLETE"`
	Answer *AnswerResponse `json:"answer,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type MessageResponse struct {
	Id        string    `json:"id"`
	Role      string    `json:"role" example:"assistant"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []string  `json:"sources,omitempty"`
}

type ProcessingResponse struct {
	Step            string `json:"step" example:"reading"`
	CurrentDocument string `json:"current_document,omitempty" example:"GDO Feux de Forêts"`
}

type ConversationResponse struct {
	Id         string             `json:"id"`
	Token      uint64             `json:"token"`
	Messages   []MessageResponse  `json:"messages"`
	Processing ProcessingResponse `json:"processing"`
}

type DocumentResponse struct {
	Id       string `json:"id" example:"inc-02"`
	Name     string `json:"name" example:"GDO Feux de Forêts"`
	Filename string `json:"filename" example:"GDO-Feux-Forets-Espaces-Naturels.pdf"`
	Category string `json:"category" example:"INCENDIE"`
	FileURL  string `json:"file_url" example:"documents/inc-02/file"`
}

type ErrorResponse struct {
	Id    string           `json:"id,omitempty"`
	Error JobOutgoingError `json:"error"`
}

// requests---------------------

type MessageRequest struct {
	Message string `json:"message" validate:"required" example:"Quelle est la procédure pour les feux de forêt ?"`
}
