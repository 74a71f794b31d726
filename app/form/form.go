// Package form turns JSON or multipart request bodies into a uniform Payload
// and coerces individual fields (integers, decimals, dates, images).
//
// Coercion of optional fields is lenient: a malformed expiration date or
// base64 image is treated as absent and only logged.
package form

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultMaxMemory bounds multipart parsing and JSON bodies when Options.MaxMemory is zero.
const DefaultMaxMemory = 10 << 20

// ErrInvalidBody is returned by Parse for malformed JSON or multipart bodies.
var ErrInvalidBody = errors.New("invalid request body")

// ErrOutOfRange is returned by Money for amounts the column cannot hold.
var ErrOutOfRange = errors.New("value out of range")

// moneyScale is the number of fractional digits stored for amounts.
const moneyScale = 2

// DateLayouts are tried in order; the first match wins.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const (
	imageFileField   = "image"
	imageBase64Field = "image_base64"
)

type Options struct {
	MaxMemory int64
	Log       logrus.FieldLogger
}

// Payload is a flat view of a request body. A key can be present with a
// null value (JSON null), which reads as the empty string.
type Payload struct {
	values    map[string]*string
	imageFile []byte
	log       logrus.FieldLogger
}

// Parse reads the request body according to its Content-Type.
// multipart/form-data and application/x-www-form-urlencoded are read as forms;
// everything else is decoded as a JSON object. An empty body is an empty payload.
func Parse(r *http.Request, opts Options) (*Payload, error) {
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = DefaultMaxMemory
	}
	p := &Payload{values: map[string]*string{}, log: opts.Log}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := p.readMultipart(r, opts.MaxMemory); err != nil {
			return nil, err
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		for key, vals := range r.PostForm {
			p.set(key, vals)
		}
	default:
		if err := p.readJSON(r.Body, opts.MaxMemory); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FromMap builds a payload from already-decoded values; used by tests and by
// callers that bind query strings.
func FromMap(values map[string]any) *Payload {
	p := &Payload{values: map[string]*string{}, log: logrus.StandardLogger()}
	for key, v := range values {
		p.values[key] = stringify(v)
	}
	return p
}

func (p *Payload) readMultipart(r *http.Request, maxMemory int64) error {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	for key, vals := range r.MultipartForm.Value {
		p.set(key, vals)
	}

	files := r.MultipartForm.File[imageFileField]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	f, err := files[0].Open()
	if err != nil {
		return fmt.Errorf("%w: open image: %v", ErrInvalidBody, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("%w: read image: %v", ErrInvalidBody, err)
	}
	p.imageFile = data
	return nil
}

func (p *Payload) readJSON(body io.Reader, maxMemory int64) error {
	if body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(body, maxMemory))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	for key, v := range raw {
		p.values[key] = stringify(v)
	}
	return nil
}

func (p *Payload) set(key string, vals []string) {
	if len(vals) == 0 {
		return
	}
	v := vals[0]
	p.values[key] = &v
}

func stringify(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case json.Number:
		s = val.String()
	case bool:
		s = strconv.FormatBool(val)
	case int:
		s = strconv.Itoa(val)
	case uint:
		s = strconv.FormatUint(uint64(val), 10)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(b)
		}
	}
	return &s
}

// Has reports whether key was sent, even as null.
func (p *Payload) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// String returns the raw value of key, or "" when absent or null.
func (p *Payload) String(key string) string {
	if v := p.values[key]; v != nil {
		return *v
	}
	return ""
}

// NullableString returns nil when key is absent or null.
func (p *Payload) NullableString(key string) *string {
	v := p.values[key]
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

// Int coerces key to an integer, returning fallback when it is absent, empty
// or not an integer.
func (p *Payload) Int(key string, fallback int) int {
	if n, ok := p.IntValue(key); ok {
		return n
	}
	return fallback
}

// IntValue reports key as an integer and whether it was a usable one.
func (p *Payload) IntValue(key string) (int, bool) {
	raw := strings.TrimSpace(p.String(key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Uint returns key as a positive integer, or nil when absent or not positive.
func (p *Payload) Uint(key string) *uint {
	raw := strings.TrimSpace(p.String(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	u := uint(n)
	return &u
}

// Decimal parses key as a decimal number.
func (p *Payload) Decimal(key string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(p.String(key)))
}

// Money parses key as an amount rounded to two decimal places. Amounts whose
// integer part needs more than integerDigits digits fail with ErrOutOfRange.
// Digits are counted from the coefficient and exponent so that inputs such as
// "1e999999999" are rejected without being expanded.
func (p *Payload) Money(key string, integerDigits int32) (decimal.Decimal, error) {
	d, err := p.Decimal(key)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}

	digits := int64(d.NumDigits()) + int64(d.Exponent())
	if digits > int64(integerDigits) {
		return decimal.Decimal{}, ErrOutOfRange
	}
	if digits < -moneyScale {
		return decimal.Zero, nil
	}

	d = d.Round(moneyScale)
	if d.Abs().GreaterThanOrEqual(decimal.New(1, integerDigits)) {
		return decimal.Decimal{}, ErrOutOfRange
	}
	return d, nil
}

// Date parses key against DateLayouts and keeps the calendar date.
// Unparseable values are treated as absent.
func (p *Payload) Date(key string) *time.Time {
	raw := strings.TrimSpace(p.String(key))
	if raw == "" {
		return nil
	}
	if d, ok := ParseDate(raw); ok {
		return &d
	}
	p.log.WithField("field", key).WithField("value", raw).Warn("ignoring unparseable date")
	return nil
}

// ParseDate tries each of DateLayouts and truncates the match to midnight UTC.
func ParseDate(raw string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Image returns the uploaded "image" file, else the decoded "image_base64"
// field. Invalid base64 is treated as absent.
func (p *Payload) Image() []byte {
	if p.imageFile != nil {
		return p.imageFile
	}

	raw := strings.TrimSpace(p.String(imageBase64Field))
	if raw == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(raw)
	}
	if err != nil {
		p.log.WithError(err).Warn("ignoring undecodable image_base64")
		return nil
	}
	return data
}

// Optional distinguishes a field that was sent from one that was not.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some wraps a sent value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}
