package queue

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURI_Defaults(t *testing.T) {
	t.Parallel()

	uri := buildURI(Config{Host: "localhost"})

	assert.Equal(t, "amqp", uri.Scheme)
	assert.Equal(t, 5672, uri.Port)
	assert.Equal(t, "/", uri.Vhost)
	assert.Equal(t, "guest", uri.Username)
	assert.Equal(t, "guest", uri.Password)
}

func TestGetURL_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "defaults",
			cfg:  Config{Host: "localhost"},
		},
		{
			name: "custom credentials and vhost",
			cfg:  Config{Scheme: "amqp", Host: "rabbit", Port: 5673, Username: "svc", Password: "p@ss", Vhost: "jobs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := amqp.ParseURI(getURL(tt.cfg))
			require.NoError(t, err)

			expected := buildURI(tt.cfg)
			assert.Equal(t, expected.Scheme, parsed.Scheme)
			assert.Equal(t, expected.Host, parsed.Host)
			assert.Equal(t, expected.Port, parsed.Port)
			assert.Equal(t, expected.Username, parsed.Username)
			assert.Equal(t, expected.Password, parsed.Password)
			assert.Equal(t, expected.Vhost, parsed.Vhost)
		})
	}
}

func TestGetSafeURL_HidesPassword(t *testing.T) {
	t.Parallel()

	safe := getSafeURL(Config{Host: "rabbit", Username: "svc", Password: "s3cret"})

	assert.NotContains(t, safe, "s3cret")
	assert.Contains(t, safe, "rabbit")
}

func TestAMQPConfig(t *testing.T) {
	t.Parallel()

	o := defaultConsumerOptions()
	WithHeartbeat(3 * time.Second)(&o)

	cfg := amqpConfig(o, "task-runner")

	assert.Equal(t, 3*time.Second, cfg.Heartbeat)
	assert.Equal(t, defaultLocale, cfg.Locale)
	assert.Equal(t, "task-runner", cfg.Properties["connection_name"])
	assert.NotNil(t, cfg.Dial)
}
