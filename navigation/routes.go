package navigation

import "fmt"

type RouteKind string

const (
	RouteDashboard     RouteKind = "dashboard"
	RouteAdmin         RouteKind = "admin"
	RoutePatientDetail RouteKind = "patient"
	RouteReport        RouteKind = "report"
)

// Route identifies a view and, for patient views, its subject
type Route struct {
	Kind      RouteKind
	PatientId string
}

func Dashboard() Route {
	return Route{Kind: RouteDashboard}
}

func Admin() Route {
	return Route{Kind: RouteAdmin}
}

func PatientDetail(patientId string) Route {
	return Route{Kind: RoutePatientDetail, PatientId: patientId}
}

func Report(patientId string) Route {
	return Route{Kind: RouteReport, PatientId: patientId}
}

// HasPatient is true for views showing a single patient
func (r Route) HasPatient() bool {
	return r.Kind == RoutePatientDetail || r.Kind == RouteReport
}

func (r Route) String() string {
	if r.HasPatient() {
		return fmt.Sprintf("%s/%s", r.Kind, r.PatientId)
	}
	return string(r.Kind)
}
