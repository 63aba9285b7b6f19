package commonModels

type Category string

const (
	Incendie     Category = "INCENDIE"
	SAP          Category = "SAP"
	NRBC         Category = "NRBC"
	Operationnel Category = "OPÉRATIONNEL"
	Divers       Category = "DIVERS"
)

var Categories = []Category{Incendie, SAP, NRBC, Operationnel, Divers}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Document is a catalogue entry. Filename is the join key the router returns.
type Document struct {
	Id       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Filename string   `json:"filename" yaml:"filename"`
	Category Category `json:"category" yaml:"category"`
	Path     string   `json:"path" yaml:"path"`
}
