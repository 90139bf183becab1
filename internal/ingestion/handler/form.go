package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"pokedex/internal/ingestion/service"
	"pokedex/internal/media"
	"pokedex/internal/pokemon/models"
	dErrors "pokedex/pkg/domain-errors"
)

// Form field names.
const (
	fieldID        = "id"
	fieldName      = "name"
	fieldHeight    = "height"
	fieldWeight    = "weight"
	fieldTypes     = "types"
	fieldAbilities = "abilities"
	fieldStats     = "stats"
	fieldSprite    = "sprite"
)

// sniffLen is how much of the file http.DetectContentType looks at.
const sniffLen = 512

// parseSubmission reads every field of the upload form. Every field is
// required; a missing or malformed one is a validation error and nothing
// else is read after it. The returned closer releases the sprite file.
func parseSubmission(form *multipart.Form) (service.Submission, io.Closer, error) {
	var (
		sub service.Submission
		err error
	)
	p := &sub.Record
	if p.ID, err = intField(form, fieldID); err != nil {
		return sub, nil, err
	}
	if p.Name, err = textField(form, fieldName); err != nil {
		return sub, nil, err
	}
	if p.Height, err = intField(form, fieldHeight); err != nil {
		return sub, nil, err
	}
	if p.Weight, err = intField(form, fieldWeight); err != nil {
		return sub, nil, err
	}
	if p.Types, err = listField(form, fieldTypes); err != nil {
		return sub, nil, err
	}
	if p.Abilities, err = listField(form, fieldAbilities); err != nil {
		return sub, nil, err
	}
	if p.Stats, err = statsField(form); err != nil {
		return sub, nil, err
	}

	image, closer, err := spriteField(form)
	if err != nil {
		return sub, nil, err
	}
	sub.Image = image
	return sub, closer, nil
}

func missing(field string) error {
	return dErrors.New(dErrors.CodeValidation, "missing required field: "+field)
}

func textField(form *multipart.Form, field string) (string, error) {
	values := form.Value[field]
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return "", missing(field)
	}
	return strings.TrimSpace(values[0]), nil
}

func intField(form *multipart.Form, field string) (int, error) {
	raw, err := textField(form, field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, field+" must be an integer")
	}
	return n, nil
}

// listField accepts either one value holding a JSON array of strings or the
// field repeated once per element. Elements are kept exactly as sent.
func listField(form *multipart.Form, field string) ([]string, error) {
	values := form.Value[field]
	if len(values) == 0 {
		return nil, missing(field)
	}
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(values[0]), &list); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, field+" must be a JSON array of strings")
		}
		return list, nil
	}
	return append([]string(nil), values...), nil
}

// statsField accepts one value holding a JSON array, or the field repeated
// once per stat object.
func statsField(form *multipart.Form) ([]models.Stat, error) {
	values := form.Value[fieldStats]
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return nil, missing(fieldStats)
	}
	raw := values[0]
	if len(values) > 1 || !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		raw = "[" + strings.Join(values, ",") + "]"
	}
	stats, err := models.ParseStats([]byte(raw))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return stats, nil
}

// spriteField opens the uploaded image and checks its content is jpeg or
// png regardless of the declared type.
func spriteField(form *multipart.Form) (media.Upload, io.Closer, error) {
	files := form.File[fieldSprite]
	if len(files) == 0 {
		return media.Upload{}, nil, missing(fieldSprite)
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return media.Upload{}, nil, dErrors.Wrap(err, dErrors.CodeValidation, "sprite could not be read")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		_ = f.Close()
		return media.Upload{}, nil, dErrors.Wrap(err, dErrors.CodeValidation, "sprite could not be read")
	}
	if n == 0 {
		_ = f.Close()
		return media.Upload{}, nil, dErrors.New(dErrors.CodeValidation, "sprite is empty")
	}
	contentType, ok := media.SniffImage(head[:n])
	if !ok {
		_ = f.Close()
		return media.Upload{}, nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("sprite must be a jpeg or png image, got %s", contentType))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return media.Upload{}, nil, dErrors.Wrap(err, dErrors.CodeValidation, "sprite could not be read")
	}

	return media.Upload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Body:        f,
		Size:        fh.Size,
	}, f, nil
}
