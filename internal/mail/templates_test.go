package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synergysphere/backend/internal/infrastructure/outbox"
)

func TestRenderConfirmation(t *testing.T) {
	tpl := NewTemplates("https://app.example.com/")

	subject, body, err := tpl.Render(outbox.Message{
		Kind:   outbox.KindConfirmation,
		Params: map[string]string{"name": "Alice", "token": "tok123"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Confirm Your Email Address", subject)
	assert.Contains(t, body, "https://app.example.com/confirm-email?token=tok123")
	assert.Contains(t, body, "Alice")
}

func TestRenderPasswordReset(t *testing.T) {
	tpl := NewTemplates("https://app.example.com")

	subject, body, err := tpl.Render(outbox.Message{
		Kind:   outbox.KindPasswordReset,
		Params: map[string]string{"name": "Bob", "token": "tok456"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Reset Your Password", subject)
	assert.Contains(t, body, "/reset-password?token=tok456")
}

func TestRenderInvitation(t *testing.T) {
	tpl := NewTemplates("https://app.example.com")

	subject, body, err := tpl.Render(outbox.Message{
		Kind: outbox.KindInvitation,
		Params: map[string]string{
			"name":    "carol@example.com",
			"project": "Launch",
			"inviter": "Alice",
			"token":   "tok789",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "Launch")
	assert.Contains(t, body, "/invitations?token=tok789")
	assert.Contains(t, body, "Alice")
}

func TestRenderEscapesHTML(t *testing.T) {
	tpl := NewTemplates("https://app.example.com")

	_, body, err := tpl.Render(outbox.Message{
		Kind:   outbox.KindConfirmation,
		Params: map[string]string{"name": "<script>x</script>", "token": "t"},
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestRenderUnknownKind(t *testing.T) {
	tpl := NewTemplates("https://app.example.com")

	_, _, err := tpl.Render(outbox.Message{Kind: "newsletter"})
	assert.Error(t, err)
}
