package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Delivery     DeliveryConfig
	Paystack     PaystackConfig
	Flutterwave  FlutterwaveConfig
	Payments     PaymentsConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Checkout.TaxRate.IsNegative() || c.Checkout.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		err = multierr.Append(err, fmt.Errorf("%s must be within [0, 1)", EnvCheckoutTaxRate))
	}
	if c.Checkout.FallbackShippingFee.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("%s must not be negative", EnvCheckoutFallbackShippingFee))
	}
	for name, value := range map[string]decimal.Decimal{
		EnvDeliveryBaseFee:           c.Delivery.BaseFee,
		EnvDeliveryPerKmFee:          c.Delivery.PerKmFee,
		EnvDeliveryFreeThreshold:     c.Delivery.FreeDeliveryThreshold,
		EnvDeliveryMinimumOrder:      c.Delivery.MinimumOrder,
		EnvDeliveryFreeDistanceKm:    c.Delivery.FreeDistanceKm,
		EnvDeliveryMinutesPerKm:      c.Delivery.MinutesPerKm,
		EnvDeliveryPreparationMinute: c.Delivery.PreparationMinutes,
	} {
		if value.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("%s must not be negative", name))
		}
	}
	if gw := strings.TrimSpace(c.Payments.DefaultGateway); gw != "" && gw != GatewayPaystack && gw != GatewayFlutterwave {
		err = multierr.Append(err, fmt.Errorf("%s must be %s or %s", EnvPaymentsDefaultGateway, GatewayPaystack, GatewayFlutterwave))
	}
	for name, timeout := range map[string]time.Duration{
		EnvPaystackTimeout:    c.Paystack.Timeout,
		EnvFlutterwaveTimeout: c.Flutterwave.Timeout,
	} {
		if timeout <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.RateLimit.Window < 0 {
		err = multierr.Append(err, errors.New("rate limit window must not be negative"))
	}
	if c.Payments.WebhookIdempotencyTTL < 0 {
		err = multierr.Append(err, errors.New("webhook idempotency ttl must not be negative"))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	DebugErrors  bool   `envconfig:"STOREFRONT_DEBUG_ERRORS" default:"false"`
	// CORSOrigins is a comma separated allow-list for browser clients.
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig holds the order pricing policy constants.
type CheckoutConfig struct {
	TaxRate             decimal.Decimal `envconfig:"STOREFRONT_CHECKOUT_TAX_RATE" default:"0.08"`
	FallbackShippingFee decimal.Decimal `envconfig:"STOREFRONT_CHECKOUT_FALLBACK_SHIPPING_FEE" default:"1500"`
	OrderNumberPrefix   string          `envconfig:"STOREFRONT_CHECKOUT_ORDER_NUMBER_PREFIX" default:"ORD"`
	Currency            string          `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"NGN"`
}

// DeliveryConfig is the global delivery-fee policy applied when a fulfillment
// point does not override a value.
type DeliveryConfig struct {
	BaseFee               decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_BASE_FEE" default:"0"`
	PerKmFee              decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_PER_KM_FEE" default:"100"`
	FreeDeliveryThreshold decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_FREE_THRESHOLD" default:"10000"`
	MinimumOrder          decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_MINIMUM_ORDER" default:"0"`
	FreeDistanceKm        decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_FREE_DISTANCE_KM" default:"2"`
	PreparationMinutes    decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_PREPARATION_MINUTES" default:"5"`
	MinutesPerKm          decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_MINUTES_PER_KM" default:"3"`
	PointCacheTTL         time.Duration   `envconfig:"STOREFRONT_DELIVERY_POINT_CACHE_TTL" default:"5m"`
}

type PaystackConfig struct {
	PublicKey string        `envconfig:"STOREFRONT_PAYSTACK_PUBLIC_KEY"`
	SecretKey string        `envconfig:"STOREFRONT_PAYSTACK_SECRET_KEY"`
	BaseURL   string        `envconfig:"STOREFRONT_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout   time.Duration `envconfig:"STOREFRONT_PAYSTACK_TIMEOUT" default:"15s"`
}

// Configured reports whether the secret key needed for API calls is present.
func (p PaystackConfig) Configured() bool {
	return strings.TrimSpace(p.SecretKey) != ""
}

type FlutterwaveConfig struct {
	PublicKey       string        `envconfig:"STOREFRONT_FLUTTERWAVE_PUBLIC_KEY"`
	SecretKey       string        `envconfig:"STOREFRONT_FLUTTERWAVE_SECRET_KEY"`
	SecretHash      string        `envconfig:"STOREFRONT_FLUTTERWAVE_SECRET_HASH"`
	BaseURL         string        `envconfig:"STOREFRONT_FLUTTERWAVE_BASE_URL" default:"https://api.flutterwave.com/v3"`
	ReferencePrefix string        `envconfig:"STOREFRONT_FLUTTERWAVE_REFERENCE_PREFIX" default:"FLW"`
	Timeout         time.Duration `envconfig:"STOREFRONT_FLUTTERWAVE_TIMEOUT" default:"15s"`
}

// Configured reports whether the secret key needed for API calls is present.
func (f FlutterwaveConfig) Configured() bool {
	return strings.TrimSpace(f.SecretKey) != ""
}

type PaymentsConfig struct {
	DefaultGateway        string        `envconfig:"STOREFRONT_PAYMENTS_DEFAULT_GATEWAY" default:"paystack"`
	CallbackURL           string        `envconfig:"STOREFRONT_PAYMENTS_CALLBACK_URL"`
	SuccessRedirectURL    string        `envconfig:"STOREFRONT_PAYMENTS_SUCCESS_REDIRECT_URL" default:"/checkout/success"`
	FailureRedirectURL    string        `envconfig:"STOREFRONT_PAYMENTS_FAILURE_REDIRECT_URL" default:"/checkout/error"`
	PaystackPrefix        string        `envconfig:"STOREFRONT_PAYMENTS_PAYSTACK_REFERENCE_PREFIX" default:"PSK"`
	WebhookIdempotencyTTL time.Duration `envconfig:"STOREFRONT_PAYMENTS_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

// RateLimitConfig throttles the unauthenticated and polling endpoints per client IP.
type RateLimitConfig struct {
	Window       time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	QuoteLimit   int           `envconfig:"STOREFRONT_RATE_LIMIT_QUOTE" default:"60"`
	VerifyLimit  int           `envconfig:"STOREFRONT_RATE_LIMIT_VERIFY" default:"30"`
	WebhookLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_WEBHOOK" default:"600"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
