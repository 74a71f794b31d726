package categories

import (
	"strings"

	"github.com/Romarate18/StockaDoodle-IMS/app/form"
	"github.com/Romarate18/StockaDoodle-IMS/models"
)

// writeRequest is the body accepted by POST and PUT.
// name is required. On PUT an omitted description is cleared, while an
// omitted image leaves the stored one in place.
type writeRequest struct {
	Name        string
	Description *string
	Image       []byte
	ActorID     *uint
}

// patchRequest is the body accepted by PATCH. Only set fields change.
type patchRequest struct {
	Name        form.Optional[string]
	Description form.Optional[*string]
	Image       []byte
	ActorID     *uint
}

func bindWrite(p *form.Payload, missingName string) (writeRequest, error) {
	name := strings.TrimSpace(p.String("name"))
	if name == "" {
		return writeRequest{}, models.Invalid("name", missingName)
	}
	return writeRequest{
		Name:        name,
		Description: p.NullableString("description"),
		Image:       p.Image(),
		ActorID:     p.Uint("user_id"),
	}, nil
}

func bindPatch(p *form.Payload) (patchRequest, error) {
	req := patchRequest{
		Image:   p.Image(),
		ActorID: p.Uint("user_id"),
	}
	if p.Has("name") {
		name := strings.TrimSpace(p.String("name"))
		if name == "" {
			return patchRequest{}, models.Invalid("name", "Category name cannot be empty")
		}
		req.Name = form.Some(name)
	}
	if p.Has("description") {
		req.Description = form.Some(p.NullableString("description"))
	}
	return req, nil
}
