package domain

// BindingDecision is the outcome of comparing a login device with the
// phone's stored binding
type BindingDecision int

const (
	BindingCreate BindingDecision = iota // no binding yet
	BindingMatch                         // same device
	BindingRepair                        // master on a new device: overwrite
	BindingReject                        // someone else's device
)

func (d BindingDecision) String() string {
	switch d {
	case BindingCreate:
		return "create"
	case BindingMatch:
		return "match"
	case BindingRepair:
		return "repair"
	}
	return "reject"
}

// DecideBinding applies the one-device-per-phone rule
func DecideBinding(existing *DeviceBinding, sameDevice, isMaster bool) BindingDecision {
	switch {
	case existing == nil:
		return BindingCreate
	case sameDevice:
		return BindingMatch
	case isMaster:
		return BindingRepair
	}
	return BindingReject
}

// FingerprintMatcher reports whether a raw fingerprint belongs to a binding
type FingerprintMatcher func(fingerprint string, binding DeviceBinding) bool

// LoginAttempt is what login policies see
type LoginAttempt struct {
	Phone         string // canonical
	Fingerprint   string
	MasterBinding *DeviceBinding // nil when the master has no bound device
}

// LoginPolicy may veto an otherwise valid login
type LoginPolicy interface {
	Name() string
	Check(attempt LoginAttempt) error
}

// CrossBindingRule keeps the master's bound device out of a configured set
// of other staff accounts
type CrossBindingRule struct {
	Blocked map[string]bool // local 10 digits
	Matches FingerprintMatcher
}

// NewCrossBindingRule builds the rule from phones in any format
func NewCrossBindingRule(blocked []string, matches FingerprintMatcher) *CrossBindingRule {
	set := make(map[string]bool, len(blocked))
	for _, p := range blocked {
		if d := LoginDigits(p); d != "" {
			set[d] = true
		}
	}
	return &CrossBindingRule{Blocked: set, Matches: matches}
}

func (r *CrossBindingRule) Name() string { return "cross-binding" }

func (r *CrossBindingRule) Check(a LoginAttempt) error {
	if !r.Blocked[LoginDigits(a.Phone)] || a.MasterBinding == nil || r.Matches == nil {
		return nil
	}
	if r.Matches(a.Fingerprint, *a.MasterBinding) {
		return ErrCrossBinding
	}
	return nil
}
