package middleware

import "hackathon_portal/internal/common"

// Page is a logical page of the portal as seen by the session guard.
type Page string

const (
	PageLogin             Page = common.RouteLogin
	PageProfile           Page = common.RouteProfile
	PageApplications      Page = common.RouteApplications
	PageProblemStatements Page = common.RouteProblemStatements
	PageSubmit            Page = "submit"
)

// Decision is the session guard's verdict for a page. When Render is false
// RedirectTo names the route to navigate to.
type Decision struct {
	Render     bool
	RedirectTo string
}

// Evaluate decides whether a page renders for the current session. The login
// page is only for signed-out users; every other page needs a session.
func Evaluate(page Page, authenticated bool) Decision {
	if page == PageLogin {
		if authenticated {
			return Decision{RedirectTo: common.RouteProfile}
		}
		return Decision{Render: true}
	}
	if !authenticated {
		return Decision{RedirectTo: common.RouteLogin}
	}
	return Decision{Render: true}
}
