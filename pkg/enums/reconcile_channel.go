package enums

// ReconcileChannel names the entry point that asked for reconciliation.
type ReconcileChannel string

const (
	ReconcileChannelCallback ReconcileChannel = "callback"
	ReconcileChannelVerify   ReconcileChannel = "verify"
	ReconcileChannelWebhook  ReconcileChannel = "webhook"
)

func (c ReconcileChannel) String() string {
	return string(c)
}

func (c ReconcileChannel) IsValid() bool {
	switch c {
	case ReconcileChannelCallback, ReconcileChannelVerify, ReconcileChannelWebhook:
		return true
	}
	return false
}
