package adapter

import (
	"fmt"

	"github.com/akolanti/SecoursTech/internal/api"
	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
	"github.com/akolanti/SecoursTech/internal/session"
)

func ToConversationResponse(id string, snap session.Snapshot) api.ConversationResponse {
	msgs := make([]api.MessageResponse, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		msgs = append(msgs, api.MessageResponse{
			Id:        m.Id,
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
			Sources:   m.Sources,
		})
	}
	return api.ConversationResponse{
		Id:       id,
		Token:    snap.Token,
		Messages: msgs,
		Processing: api.ProcessingResponse{
			Step:            string(snap.Processing.Step),
			CurrentDocument: snap.Processing.CurrentDocument,
		},
	}
}

func ToDocumentResponses(docs []commonModels.Document) []api.DocumentResponse {
	out := make([]api.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, api.DocumentResponse{
			Id:       d.Id,
			Name:     d.Name,
			Filename: d.Filename,
			Category: string(d.Category),
			FileURL:  fmt.Sprintf("documents/%s/file", d.Id),
		})
	}
	return out
}
