package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Email     string `env:"EMAIL,required"`
		Password  string `env:"PASSWORD,required"`
		FirstName string `env:"FIRST_NAME" envDefault:"Show"`
		LastName  string `env:"LAST_NAME" envDefault:"Admin"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // hours, 14 days
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		Worker struct {
			Password string `env:"PASSWORD" envDefault:"TempPassword123"`
		} `envPrefix:"WORKER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		WorkerDomain string `env:"WORKER_DOMAIN,required"`
		SMTP         struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
		TemplateDir string `env:"TEMPLATE_DIR" envDefault:"./templates"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"` // seconds
	} `envPrefix:"REDIS_"`
	OTP struct {
		Expiration int `env:"EXPIRATION" envDefault:"900"` // seconds
	} `envPrefix:"OTP_"`
	NewWorker struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_WORKER_"`
	Upload struct {
		Dir                string   `env:"DIR" envDefault:"./uploads"`
		MaxSize            int64    `env:"MAX_SIZE" envDefault:"20"` // MiB
		ReceiptExtensions  []string `env:"RECEIPT_EXTENSIONS" envDefault:"pdf,jpeg,jpg,png"`
		DocumentExtensions []string `env:"DOCUMENT_EXTENSIONS" envDefault:"pdf,jpeg,jpg,png,docx,xlsx"`
	} `envPrefix:"UPLOAD_"`
	CORS struct {
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
	} `envPrefix:"CORS_"`
	PayPeriod struct {
		Anchor string `env:"ANCHOR" envDefault:"2024-01-07"`
		Weeks  int    `env:"WEEKS" envDefault:"2"`
		Count  int    `env:"COUNT" envDefault:"5"`
	} `envPrefix:"PAY_PERIOD_"`
	RateLimit struct {
		LoginPerMinute int `env:"LOGIN_PER_MINUTE" envDefault:"10"`
	} `envPrefix:"RATE_LIMIT_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only surface the first error so the log stays readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
