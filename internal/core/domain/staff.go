package domain

import "sort"

// Roster is the closed allow-list of staff phones
type Roster struct {
	prefix    string
	names     map[string]string // local 10 digits -> display name
	master    string            // local digits
	monitored map[string]bool   // local digits
}

// NewRoster builds a roster. Phones may be given in any format.
func NewRoster(countryPrefix string, staff map[string]string, masterPhone string, monitored []string) *Roster {
	r := &Roster{
		prefix:    countryPrefix,
		names:     make(map[string]string, len(staff)),
		master:    LoginDigits(masterPhone),
		monitored: make(map[string]bool, len(monitored)),
	}
	for phone, name := range staff {
		r.names[LoginDigits(phone)] = name
	}
	for _, phone := range monitored {
		r.monitored[LoginDigits(phone)] = true
	}
	return r
}

// Resolve maps login-form input to a known staff member
func (r *Roster) Resolve(rawPhone string) (Staff, bool) {
	local := LoginDigits(rawPhone)
	name, ok := r.names[local]
	if !ok {
		return Staff{}, false
	}
	return Staff{Phone: CanonicalPhone(r.prefix, local), Name: name}, true
}

// IsMaster reports whether phone is the master identity
func (r *Roster) IsMaster(phone string) bool {
	return r.master != "" && LoginDigits(phone) == r.master
}

// MasterPhone returns the canonical master phone
func (r *Roster) MasterPhone() string {
	return CanonicalPhone(r.prefix, r.master)
}

// IsMonitored reports whether phone's actions carry monitored tags
func (r *Roster) IsMonitored(phone string) bool {
	return r.monitored[LoginDigits(phone)]
}

// NameOf returns the display name for phone, or the phone itself
func (r *Roster) NameOf(phone string) string {
	if s, ok := r.Resolve(phone); ok {
		return s.Name
	}
	return phone
}

// Members lists staff sorted by name
func (r *Roster) Members() []Staff {
	out := make([]Staff, 0, len(r.names))
	for local, name := range r.names {
		out = append(out, Staff{Phone: CanonicalPhone(r.prefix, local), Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tag swaps the default tag for its monitored variant when phone is
// monitored. Authorization is unaffected.
func (r *Roster) Tag(action Action, phone string) Action {
	if !r.IsMonitored(phone) {
		return action
	}
	switch action {
	case ActionLogin, ActionSecureLogin:
		return ActionMonitoredLogin
	case ActionLogout:
		return ActionMonitoredLogout
	case ActionMemberUpdate:
		return ActionMonitoredUpdate
	}
	return action
}
