// Package form holds the Add-Site form: the draft being edited, its
// validation rules, tag editing and the submit lifecycle.
package form

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Field names used as ValidationErrors keys.
const (
	FieldName               = "name"
	FieldURL                = "url"
	FieldCountry            = "country"
	FieldCheckInterval      = "check_interval"
	FieldTimeoutSeconds     = "timeout_seconds"
	FieldExpectedStatusCode = "expected_status_code"
	FieldSubmit             = "submit"
)

const (
	DefaultCheckInterval      = 300
	DefaultTimeoutSeconds     = 30
	DefaultExpectedStatusCode = 200

	MinCheckInterval = 60
	MinTimeout       = 5
	MaxTimeout       = 300
	MinStatusCode    = 100
	MaxStatusCode    = 599
)

const SubmitFailedMessage = "Failed to add site. Please try again."

var ErrBusy = errors.New("submission already in progress")

type Draft struct {
	Name               string   `json:"name"`
	URL                string   `json:"url"`
	Description        string   `json:"description"`
	Country            string   `json:"country"`
	CheckInterval      int      `json:"check_interval"`
	TimeoutSeconds     int      `json:"timeout_seconds"`
	ExpectedStatusCode int      `json:"expected_status_code"`
	Tags               []string `json:"tags"`
}

func DefaultDraft() Draft {
	return Draft{
		CheckInterval:      DefaultCheckInterval,
		TimeoutSeconds:     DefaultTimeoutSeconds,
		ExpectedStatusCode: DefaultExpectedStatusCode,
		Tags:               []string{},
	}
}

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return strings.Join(parts, "; ")
}

// Validate applies the field rules to d. An empty result means d may be
// submitted.
func Validate(d Draft) ValidationErrors {
	errs := ValidationErrors{}
	if strings.TrimSpace(d.Name) == "" {
		errs[FieldName] = "Site name is required"
	}
	if strings.TrimSpace(d.URL) == "" {
		errs[FieldURL] = "URL is required"
	} else if !isAbsoluteURL(d.URL) {
		errs[FieldURL] = "Please enter a valid URL"
	}
	if d.Country == "" {
		errs[FieldCountry] = "Country is required"
	}
	if d.CheckInterval < MinCheckInterval {
		errs[FieldCheckInterval] = "Check interval must be at least 60 seconds"
	}
	if d.TimeoutSeconds < MinTimeout || d.TimeoutSeconds > MaxTimeout {
		errs[FieldTimeoutSeconds] = "Timeout must be between 5 and 300 seconds"
	}
	if d.ExpectedStatusCode < MinStatusCode || d.ExpectedStatusCode > MaxStatusCode {
		errs[FieldExpectedStatusCode] = "Status code must be between 100 and 599"
	}
	return errs
}

// isAbsoluteURL accepts anything with a scheme and a non-opaque authority
// or path, like a browser's URL constructor does. mailto: style opaque URLs
// are accepted too since they carry a scheme.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return false
	}
	if u.Opaque != "" {
		return true
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return u.Host != ""
	}
	return u.Host != "" || u.Path != ""
}

// AddTag trims tag and appends it unless it is empty or already present
// (case-sensitive). It reports whether the list changed.
func (d *Draft) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, t := range d.Tags {
		if t == tag {
			return false
		}
	}
	d.Tags = append(d.Tags, tag)
	return true
}

// RemoveTag drops every exact match of tag.
func (d *Draft) RemoveTag(tag string) {
	out := d.Tags[:0]
	for _, t := range d.Tags {
		if t != tag {
			out = append(out, t)
		}
	}
	d.Tags = out
}

// NewSite turns a validated draft into the insert payload with the
// defaults new sites start from.
func (d Draft) NewSite() domain.NewSite {
	var desc *string
	if d.Description != "" {
		v := d.Description
		desc = &v
	}
	tags := append([]string{}, d.Tags...)
	return domain.NewSite{
		Name:               d.Name,
		URL:                d.URL,
		Description:        desc,
		Country:            d.Country,
		CheckInterval:      d.CheckInterval,
		TimeoutSeconds:     d.TimeoutSeconds,
		ExpectedStatusCode: d.ExpectedStatusCode,
		Status:             domain.StatusUnknown,
		Tags:               tags,
		IsActive:           true,
	}
}

// SubmitFunc receives a validated draft. A returned error keeps the form
// open with a generic submit message.
type SubmitFunc func(ctx context.Context, d Draft) error

// Form is the modal's state. The zero value is a closed form; it is safe
// for concurrent use.
type Form struct {
	mu         sync.Mutex
	open       bool
	submitting bool
	draft      Draft
	errs       ValidationErrors
	tagInput   string
}

func New() *Form {
	return &Form{draft: DefaultDraft(), errs: ValidationErrors{}}
}

// Open shows the form with every field back at its default.
func (f *Form) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	f.open = true
}

// Close hides the form and discards the draft.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	f.open = false
}

func (f *Form) resetLocked() {
	f.draft = DefaultDraft()
	f.errs = ValidationErrors{}
	f.tagInput = ""
}

func (f *Form) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.draft
	d.Tags = append([]string{}, f.draft.Tags...)
	return d
}

// Errors returns a copy of the current field errors.
func (f *Form) Errors() ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(ValidationErrors, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// Edit applies fn to the draft. Tags are edited through AddTag/RemoveTag.
func (f *Form) Edit(fn func(d *Draft)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := f.draft.Tags
	fn(&f.draft)
	f.draft.Tags = tags
}

func (f *Form) SetTagInput(s string) {
	f.mu.Lock()
	f.tagInput = s
	f.mu.Unlock()
}

func (f *Form) TagInput() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tagInput
}

// AddTag commits the pending tag input. The input is cleared only when the
// tag was accepted.
func (f *Form) AddTag() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft.AddTag(f.tagInput) {
		f.tagInput = ""
		return true
	}
	return false
}

func (f *Form) RemoveTag(tag string) {
	f.mu.Lock()
	f.draft.RemoveTag(tag)
	f.mu.Unlock()
}

// Submit validates the draft and, if it is clean, hands it to submit. While
// submit runs further calls return ErrBusy. Validation failures are
// returned as ValidationErrors; a failing submit is logged by the caller
// and surfaces here as a single FieldSubmit error with the form left open.
// On success the form resets and closes.
func (f *Form) Submit(ctx context.Context, submit SubmitFunc) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	errs := Validate(f.draft)
	f.errs = errs
	if len(errs) > 0 {
		f.mu.Unlock()
		return errs
	}
	d := f.draft
	d.Tags = append([]string{}, f.draft.Tags...)
	f.submitting = true
	f.mu.Unlock()

	err := submit(ctx, d)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.errs = ValidationErrors{FieldSubmit: SubmitFailedMessage}
		return f.errs
	}
	f.resetLocked()
	f.open = false
	return nil
}
