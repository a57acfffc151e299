package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, c.List())

	webhook, err := c.Get("webhook-trigger")
	require.NoError(t, err)
	require.Equal(t, KindTrigger, webhook.Kind)
	require.Equal(t, "Webhook Trigger", webhook.Label)
	require.Equal(t, "webhook", webhook.TriggerType)

	email, err := c.Get("send-email")
	require.NoError(t, err)
	require.Equal(t, KindAction, email.Kind)
	require.Equal(t, "Send Email", email.Label)

	subject, ok := email.Field("subject")
	require.True(t, ok)
	require.Equal(t, HintShortText, subject.Hint)

	body, ok := email.Field("body")
	require.True(t, ok)
	require.Equal(t, HintLongText, body.Hint)

	// yaml ints are stored as float64
	threshold, err := c.Get("threshold-condition")
	require.NoError(t, err)
	require.Equal(t, float64(0), threshold.DefaultConfig()["threshold"])
}

func TestGetUnknownTemplate(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Get("does-not-exist")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestDefaultConfigIsCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tpl, err := c.Get("send-email")
	require.NoError(t, err)

	cfg := tpl.DefaultConfig()
	cfg["subject"] = "changed"

	again, err := c.Get("send-email")
	require.NoError(t, err)
	require.Equal(t, "", again.DefaultConfig()["subject"])
}

func TestGroups(t *testing.T) {
	c, err := New(
		NodeTemplate{ID: "a", Kind: KindTrigger, Category: "Triggers"},
		NodeTemplate{ID: "b", Kind: KindAction, Category: "Actions"},
		NodeTemplate{ID: "c", Kind: KindTrigger, Category: "Triggers"},
		NodeTemplate{ID: "d", Kind: KindDelay, Category: "Timing"},
	)
	require.NoError(t, err)

	groups := c.Groups()
	require.Len(t, groups, 3)
	require.Equal(t, "Triggers", groups[0].Category)
	require.Len(t, groups[0].Templates, 2)
	require.Equal(t, "c", groups[0].Templates[1].ID)
	require.Equal(t, "Actions", groups[1].Category)
	require.Equal(t, "Timing", groups[2].Category)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		label   string
		doc     string
		wantErr error
	}{
		{
			label: "valid document with inferred hints",
			doc: `
templates:
  - id: note
    kind: action
    label: Note
    category: Actions
    config:
      - name: message
        default: hi
      - name: retries
        default: 3
      - name: enabled
        default: true
`,
		},
		{
			label: "unknown kind",
			doc: `
templates:
  - id: loop
    kind: loop
`,
			wantErr: ErrInvalidKind,
		},
		{
			label: "duplicate ids",
			doc: `
templates:
  - id: x
    kind: action
  - id: x
    kind: action
`,
			wantErr: ErrDuplicateTemplate,
		},
		{
			label: "default does not match hint",
			doc: `
templates:
  - id: x
    kind: action
    config:
      - name: count
        hint: number
        default: ten
`,
			wantErr: ErrDefaultMismatch,
		},
		{
			label: "unknown hint",
			doc: `
templates:
  - id: x
    kind: action
    config:
      - name: color
        hint: colour-picker
        default: red
`,
			wantErr: ErrInvalidHint,
		},
		{
			label:   "malformed yaml",
			doc:     "templates: [",
			wantErr: ErrInvalidCatalog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			c, err := Load(strings.NewReader(tt.doc))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, c)
				return
			}
			require.NoError(t, err)

			tpl, err := c.Get("note")
			require.NoError(t, err)

			msg, _ := tpl.Field("message")
			require.Equal(t, HintLongText, msg.Hint)
			retries, _ := tpl.Field("retries")
			require.Equal(t, HintNumber, retries.Hint)
			require.Equal(t, float64(3), retries.Default)
			enabled, _ := tpl.Field("enabled")
			require.Equal(t, HintBoolean, enabled.Hint)
		})
	}
}

func TestInferHint(t *testing.T) {
	tests := []struct {
		label string
		name  string
		value any
		want  FieldHint
	}{
		{label: "bool value", name: "enabled", value: true, want: HintBoolean},
		{label: "number value", name: "delay", value: 5.0, want: HintNumber},
		{label: "email body", name: "body", value: "", want: HintLongText},
		{label: "slack message", name: "message", value: "", want: HintLongText},
		{label: "request data", name: "requestData", value: "", want: HintLongText},
		{label: "plain text", name: "subject", value: "", want: HintShortText},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			require.Equal(t, tt.want, InferHint(tt.name, tt.value))
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	v, err := NormalizeValue(7)
	require.NoError(t, err)
	require.Equal(t, 7.0, v)

	v, err = NormalizeValue(nil)
	require.NoError(t, err)
	require.Equal(t, "", v)

	_, err = NormalizeValue([]string{"a"})
	require.ErrorIs(t, err, ErrUnsupportedValue)
}
