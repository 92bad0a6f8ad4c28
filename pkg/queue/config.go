package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultHeartbeat         = 10 * time.Second
	defaultConnectionTimeout = 30 * time.Second
	defaultLocale            = "en_US"
)

// Config is used to establish a connection with a RabbitMQ server.
type Config struct {
	Scheme   string
	Username string
	Password string
	Host     string
	Port     int
	Vhost    string
}

func buildURI(cfg Config) amqp.URI {
	uri := amqp.URI{
		Scheme:   cfg.Scheme,
		Username: cfg.Username,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Vhost:    cfg.Vhost,
	}

	if uri.Scheme == "" {
		uri.Scheme = "amqp"
	}

	if uri.Port == 0 {
		uri.Port = 5672
	}

	if uri.Vhost == "" {
		uri.Vhost = "/"
	}

	if uri.Username == "" {
		uri.Username = "guest"
		uri.Password = "guest"
	}

	return uri
}

func getURL(cfg Config) string {
	return buildURI(cfg).String()
}

// getSafeURL returns the connection URL without the password, suitable for logs and errors.
func getSafeURL(cfg Config) string {
	uri := buildURI(cfg)
	uri.Password = ""

	return uri.String()
}

func amqpConfig(o consumerOptions, name string) amqp.Config {
	props := amqp.NewConnectionProperties()
	if name != "" {
		props.SetClientConnectionName(name)
	}

	return amqp.Config{
		Heartbeat:  o.heartbeat,
		Locale:     defaultLocale,
		Properties: props,
		Dial:       amqp.DefaultDial(o.connectionTimeout),
	}
}
