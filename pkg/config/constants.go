package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	GatewayPaystack    = "paystack"
	GatewayFlutterwave = "flutterwave"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvCheckoutTaxRate             = "STOREFRONT_CHECKOUT_TAX_RATE"
	EnvCheckoutFallbackShippingFee = "STOREFRONT_CHECKOUT_FALLBACK_SHIPPING_FEE"

	EnvDeliveryBaseFee           = "STOREFRONT_DELIVERY_BASE_FEE"
	EnvDeliveryPerKmFee          = "STOREFRONT_DELIVERY_PER_KM_FEE"
	EnvDeliveryFreeThreshold     = "STOREFRONT_DELIVERY_FREE_THRESHOLD"
	EnvDeliveryMinimumOrder      = "STOREFRONT_DELIVERY_MINIMUM_ORDER"
	EnvDeliveryFreeDistanceKm    = "STOREFRONT_DELIVERY_FREE_DISTANCE_KM"
	EnvDeliveryPreparationMinute = "STOREFRONT_DELIVERY_PREPARATION_MINUTES"
	EnvDeliveryMinutesPerKm      = "STOREFRONT_DELIVERY_MINUTES_PER_KM"

	EnvPaystackSecretKey    = "STOREFRONT_PAYSTACK_SECRET_KEY"
	EnvPaystackTimeout      = "STOREFRONT_PAYSTACK_TIMEOUT"
	EnvFlutterwaveSecretKey = "STOREFRONT_FLUTTERWAVE_SECRET_KEY"
	EnvFlutterwaveTimeout   = "STOREFRONT_FLUTTERWAVE_TIMEOUT"

	EnvPaymentsDefaultGateway = "STOREFRONT_PAYMENTS_DEFAULT_GATEWAY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
