package editor

import (
	"time"

	"portal-web/cv/model"
)

// Step is the editor workflow position.
type Step string

const (
	StepSelectTemplate Step = "select-template"
	StepEdit           Step = "edit"
)

// Owner identifies the caller of an editor operation.
type Owner struct {
	UserID string
	Token  string
}

// PendingPhoto is a profile photo chosen in this session and not yet uploaded.
type PendingPhoto struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Draft is the transient editor state for one CV. It exists only until submit succeeds,
// the user discards it, or it sits idle past the draft TTL.
type Draft struct {
	ID        string
	OwnerID   string
	Step      Step
	Document  model.Document
	Templates []model.Template
	// StoredPhoto is the server-relative photo path the CV had when loaded or last uploaded.
	StoredPhoto  string
	PendingPhoto *PendingPhoto
	Submitting   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a copy that shares no mutable state with d.
func (d *Draft) Clone() *Draft {
	out := *d
	out.Document = d.Document.Clone()
	out.Templates = append([]model.Template(nil), d.Templates...)
	if d.PendingPhoto != nil {
		p := *d.PendingPhoto
		out.PendingPhoto = &p
	}
	return &out
}

// IsEditing reports whether the draft targets an existing CV.
func (d *Draft) IsEditing() bool {
	return d.Document.ID != ""
}

func (d *Draft) hasActiveTemplate(id string) bool {
	for _, t := range d.Templates {
		if t.ID == id && t.IsActive {
			return true
		}
	}
	return false
}
