package rag

import (
	"strings"

	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
)

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

func testDoc() commonModels.Document {
	return commonModels.Document{
		Id:       "inc-02",
		Name:     "GDO Feux de Forêts",
		Filename: "GDO-Feux-Forets-Espaces-Naturels.pdf",
		Category: commonModels.Incendie,
		Path:     "/documents/GDO-Feux-Forets-Espaces-Naturels.pdf",
	}
}
