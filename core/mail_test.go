package core

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	ParseEmailTemplates(NewNopLogger(), true)

	t.Run("templated", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Name: "Ali", Address: "ali@test.test"}},
			Subject:      "Verify your email",
			TemplateName: "verify_email",
			TemplateData: map[string]string{"Name": "Ali", "Token": "abc.def"},
		}
		require.NoError(t, msg.Render("Internship Portal", "http://localhost:4200"))
		assert.True(t, msg.HasContent())
		assert.Contains(t, msg.TextContent, "http://localhost:4200/verify-email?token=abc.def")
		assert.Contains(t, msg.HTMLContent, "Verify my email")
		assert.True(t, strings.HasPrefix(msg.TextContent, "Hello Ali"))
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hi"}
		require.NoError(t, msg.Render("Internship Portal", ""))
		assert.Equal(t, "hi", msg.TextContent)
		assert.False(t, msg.HasRecipients())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "nope"}
		assert.Error(t, msg.Render("Internship Portal", ""))
	})
}
