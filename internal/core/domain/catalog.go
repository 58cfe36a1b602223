package domain

// packages is the fixed catalog. Prices and durations never change at runtime.
var packages = []Package{
	{ID: "gym-1", Category: CategoryGym, Name: "1 Month", Price: 1500, DurationDays: 30},
	{ID: "gym-3", Category: CategoryGym, Name: "3 Months", Price: 3500, DurationDays: 90},
	{ID: "gym-6", Category: CategoryGym, Name: "6 Months", Price: 5000, DurationDays: 180},
	{ID: "gym-12-2", Category: CategoryGym, Name: "12 Months + 2 Months", Price: 7500, DurationDays: 425},
	{ID: "gym-12-2-c", Category: CategoryGym, Name: "Couple 12 Months + 2 Months", Price: 14000, CoupleOnly: true, DurationDays: 425},

	{ID: "mma-1", Category: CategoryMMA, Name: "1 Month", Price: 3000, DurationDays: 30},
	{ID: "mma-3", Category: CategoryMMA, Name: "3 Months", Price: 7500, DurationDays: 90},
	{ID: "mma-6", Category: CategoryMMA, Name: "6 Months", Price: 12000, DurationDays: 180},
	{ID: "mma-12-2", Category: CategoryMMA, Name: "12 Months + 2 Months", Price: 22000, DurationDays: 425},
	{ID: "mma-12-2-c", Category: CategoryMMA, Name: "Couple 12 Months + 2 Months", Price: 38000, CoupleOnly: true, DurationDays: 425},
}

// Catalog returns a copy of every package
func Catalog() []Package {
	out := make([]Package, len(packages))
	copy(out, packages)
	return out
}

// FindPackage looks a package up by id
func FindPackage(id string) (Package, bool) {
	for _, p := range packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// PackageName returns the display name for id, or "N/A"
func PackageName(id string) string {
	if p, ok := FindPackage(id); ok {
		return p.Name
	}
	return "N/A"
}

// SelectablePackages returns the packages offered for a category and
// membership type, in catalog order.
func SelectablePackages(category ServiceCategory, membershipType MembershipType) []Package {
	couple := membershipType == MembershipCouple
	var out []Package
	for _, p := range packages {
		if p.Category == category && p.CoupleOnly == couple {
			out = append(out, p)
		}
	}
	return out
}

// ResolvePackage returns the package with id when it is selectable for the
// given category and type. A stale or mismatched id falls back to the first
// selectable package. ok is false only when nothing is selectable.
func ResolvePackage(id string, category ServiceCategory, membershipType MembershipType) (Package, bool) {
	selectable := SelectablePackages(category, membershipType)
	if len(selectable) == 0 {
		return Package{}, false
	}
	for _, p := range selectable {
		if p.ID == id {
			return p, true
		}
	}
	return selectable[0], true
}
