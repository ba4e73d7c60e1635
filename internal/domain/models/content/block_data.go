package content

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SectionHeaderData is the payload of a section-header block
type SectionHeaderData struct {
	Text  string `json:"text"`
	Level string `json:"level,omitempty"` // h1..h6
}

func (*SectionHeaderData) Kind() BlockType { return BlockSectionHeader }

func (d *SectionHeaderData) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Level, validation.In("h1", "h2", "h3", "h4", "h5", "h6")),
	)
}

func (d *SectionHeaderData) clone() BlockData { c := *d; return &c }

// RichTextData is the payload of a rich-text block
type RichTextData struct {
	Content string `json:"content"`
}

func (*RichTextData) Kind() BlockType    { return BlockRichText }
func (*RichTextData) Validate() error    { return nil }
func (d *RichTextData) clone() BlockData { c := *d; return &c }

// ListData is the payload of a list block
type ListData struct {
	Items []string `json:"items"`
	Style string   `json:"style,omitempty"` // bulleted | numbered
}

func (*ListData) Kind() BlockType { return BlockList }

func (d *ListData) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Style, validation.In("bulleted", "numbered")),
	)
}

func (d *ListData) clone() BlockData {
	c := *d
	c.Items = cloneStrings(d.Items)
	return &c
}

// DivisionData is the payload of a division (separator) block. It carries nothing.
type DivisionData struct{}

func (*DivisionData) Kind() BlockType  { return BlockDivision }
func (*DivisionData) Validate() error  { return nil }
func (*DivisionData) clone() BlockData { return &DivisionData{} }

// QuoteData is the payload of a quote block
type QuoteData struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

func (*QuoteData) Kind() BlockType    { return BlockQuote }
func (*QuoteData) Validate() error    { return nil }
func (d *QuoteData) clone() BlockData { c := *d; return &c }

// QuizData is the payload of a quiz block
type QuizData struct {
	Title              string     `json:"title,omitempty"`
	Description        string     `json:"description,omitempty"`
	Questions          []Question `json:"questions"`
	ShowCorrectAnswers bool       `json:"showCorrectAnswers"`
	AllowRetakes       bool       `json:"allowRetakes"`
}

// Question is one quiz question. CorrectAnswer indexes Options.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Validate checks the answer index against the options
func (q Question) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.ID, validation.Required),
		validation.Field(&q.Type, validation.In("multiple-choice", "true-false", "short-answer")),
		validation.Field(&q.CorrectAnswer, validation.By(func(interface{}) error {
			if len(q.Options) == 0 {
				return nil
			}
			if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
				return errors.New("must index one of the options")
			}
			return nil
		})),
	)
}

func (*QuizData) Kind() BlockType { return BlockQuiz }

func (d *QuizData) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Questions),
	)
}

func (d *QuizData) clone() BlockData {
	c := *d
	if d.Questions != nil {
		c.Questions = make([]Question, len(d.Questions))
		for i, q := range d.Questions {
			q.Options = cloneStrings(q.Options)
			c.Questions[i] = q
		}
	}
	return &c
}

// ImageUploadData is the payload of an image-upload block
type ImageUploadData struct {
	URL     string `json:"url,omitempty"`
	Caption string `json:"caption,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

func (*ImageUploadData) Kind() BlockType    { return BlockImageUpload }
func (*ImageUploadData) Validate() error    { return nil }
func (d *ImageUploadData) clone() BlockData { c := *d; return &c }

// ExerciseData is the payload of an exercise block
type ExerciseData struct {
	Name     string  `json:"name,omitempty"`
	Sets     int     `json:"sets,omitempty"`
	Reps     int     `json:"reps,omitempty"`
	RestTime int     `json:"restTime,omitempty"` // seconds
	Duration int     `json:"duration,omitempty"` // minutes
	Weight   float64 `json:"weight,omitempty"`
}

func (*ExerciseData) Kind() BlockType { return BlockExercise }

func (d *ExerciseData) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Sets, validation.Min(0)),
		validation.Field(&d.Reps, validation.Min(0)),
		validation.Field(&d.RestTime, validation.Min(0)),
		validation.Field(&d.Duration, validation.Min(0)),
		validation.Field(&d.Weight, validation.Min(0.0)),
	)
}

func (d *ExerciseData) clone() BlockData { c := *d; return &c }

// ReferenceData is the payload of the content-reference kinds (video, ai-agent,
// document, image, pdf, prompts, automation, wods, blocks)
type ReferenceData struct {
	SelectedContent *ContentReference `json:"selectedContent,omitempty"`

	kind BlockType
}

// ContentReference points at an item of another repository
type ContentReference struct {
	ID             string         `json:"id"`
	Title          string         `json:"title,omitempty"`
	RepositoryType RepositoryType `json:"repository_type,omitempty"`
	ThumbnailURL   string         `json:"thumbnail_url,omitempty"`
	Video          *VideoSource   `json:"video,omitempty"`
}

// VideoSource describes an embeddable video
type VideoSource struct {
	URL      string `json:"video_url"`
	Platform string `json:"video_platform,omitempty"`
	VideoID  string `json:"video_id,omitempty"`
}

// NewReferenceData returns an empty reference payload for a content-reference kind
func NewReferenceData(kind BlockType, ref *ContentReference) *ReferenceData {
	return &ReferenceData{kind: kind, SelectedContent: ref}
}

func (d *ReferenceData) Kind() BlockType { return d.kind }

func (d *ReferenceData) Validate() error {
	if d.SelectedContent == nil {
		return nil
	}
	ref := d.SelectedContent
	return validation.ValidateStruct(ref,
		validation.Field(&ref.ID, validation.Required),
		validation.Field(&ref.RepositoryType, validation.By(func(interface{}) error {
			if ref.RepositoryType != "" && !ref.RepositoryType.Valid() {
				return errors.New("unknown repository type")
			}
			return nil
		})),
	)
}

func (d *ReferenceData) clone() BlockData {
	c := *d
	if d.SelectedContent != nil {
		ref := *d.SelectedContent
		if ref.Video != nil {
			video := *ref.Video
			ref.Video = &video
		}
		c.SelectedContent = &ref
	}
	return &c
}
