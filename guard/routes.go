package guard

// Route is a named page of the application.
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
}

type Routes []Route

// Match returns the route registered for path.
func (rs Routes) Match(path string) (Route, bool) {
	for _, r := range rs {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
