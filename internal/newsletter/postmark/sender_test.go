package postmark

import (
	"context"
	"testing"

	"github.com/inkdrift/inkdrift/internal/newsletter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSender_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "enabled without server token",
			config: Config{
				Enabled:     true,
				FromAddress: "news@example.com",
			},
			wantErr: "server token is required",
		},
		{
			name: "enabled without from address",
			config: Config{
				Enabled:     true,
				ServerToken: "token",
			},
			wantErr: "from address is required",
		},
		{
			name: "disabled - no validation",
			config: Config{
				Enabled: false,
			},
			wantErr: "",
		},
		{
			name: "valid config",
			config: Config{
				Enabled:     true,
				ServerToken: "token",
				FromAddress: "news@example.com",
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := NewSender(tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, sender)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, sender)
			}
		})
	}
}

func TestNewSender_DisabledHasNoClient(t *testing.T) {
	sender, err := NewSender(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, sender.Enabled())
	assert.Nil(t, sender.client)
}

func TestSender_Name(t *testing.T) {
	sender, err := NewSender(Config{Enabled: false})
	require.NoError(t, err)

	assert.Equal(t, "postmark", sender.Name())
}

func TestSender_Send_DisabledIsNoop(t *testing.T) {
	sender, err := NewSender(Config{Enabled: false})
	require.NoError(t, err)

	err = sender.Send(context.Background(), newsletter.Message{
		To:       "reader@example.com",
		Subject:  "Test",
		TextBody: "body",
	})
	assert.NoError(t, err)
}
