package adapter

import (
	"fmt"

	"github.com/akolanti/SecoursTech/internal/api"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:             job.Id,
		ConversationId: job.ConversationId,
		StartTime:      job.CreatedTime,
		EndTime:        job.EndTime,
		Error:          errorPtr,
		Result: api.Result{
			Status: string(job.Status),
			Answer: ToAnswerResponse(job.JobPayload),
		},
	}
}

func ToAnswerResponse(payload jobModel.JobPayload) *api.AnswerResponse {
	if payload.Answer == "" && len(payload.Sources) == 0 {
		return nil
	}
	return &api.AnswerResponse{
		Question: payload.Question,
		Answer:   payload.Answer,
		Intent:   payload.Intent,
		Sources:  payload.Sources,
	}
}

func BadRequest(id string, message string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Id: id,
		Error: api.JobOutgoingError{
			Code:    code,
			Message: message,
			Retry:   false,
		},
	}
}
