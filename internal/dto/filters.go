package dto

import "github.com/promata/reservas-gateway/internal/query"

// ApiDefaultFilters is shared by every paginated admin listing.
var ApiDefaultFilters = query.Schema{
	Name: "default",
	Fields: []query.Field{
		{Key: "page", Kind: query.KindInt, Rule: "gte=0", Default: DefaultPage},
		{Key: "limit", Kind: query.KindInt, Rule: "gte=1,lte=100", Default: DefaultLimit},
		{Key: "sort", Kind: query.KindString, Rule: "max=50"},
		{Key: "dir", Kind: query.KindEnum, Enum: []string{"asc", "desc"}},
	},
}

// ExperienceAdminFilters narrows the admin experience listing.
var ExperienceAdminFilters = ApiDefaultFilters.Extend("experience-admin",
	query.Field{Key: "name", Kind: query.KindString, Rule: "max=100"},
	query.Field{Key: "category", Kind: query.KindEnum, Enum: []string{"TRAIL", "HOSTING", "LAB", "EVENT"}},
	query.Field{Key: "status", Kind: query.KindEnum, Enum: []string{"ACTIVE", "INACTIVE"}},
	query.Field{Key: "startDate", Kind: query.KindString, Rule: "max=100"},
	query.Field{Key: "endDate", Kind: query.KindString, Rule: "max=100"},
)

// ExperienceSearchFilters drives the public experience search. Pages are zero based here.
var ExperienceSearchFilters = query.Schema{
	Name: "experience-search",
	Fields: []query.Field{
		{Key: "name", Kind: query.KindString, Rule: "max=100"},
		{Key: "description", Kind: query.KindString, Rule: "max=200"},
		{Key: "category", Kind: query.KindEnum, Enum: []string{"TRAIL", "HOSTING", "LAB", "EVENT"}},
		{Key: "date", Kind: query.KindString, Rule: "max=100"},
		{Key: "sort", Kind: query.KindEnum, Enum: []string{"name", "startDate", "endDate", "price", "capacity"}},
		{Key: "dir", Kind: query.KindEnum, Enum: []string{"asc", "desc"}},
		{Key: "page", Kind: query.KindInt, Rule: "gte=0", Default: 0},
		{Key: "limit", Kind: query.KindInt, Rule: "gte=1,lte=100", Default: 12},
	},
}

// UserAdminFilters narrows the admin user listing.
var UserAdminFilters = ApiDefaultFilters.Extend("user-admin",
	query.Field{Key: "name", Kind: query.KindString, Rule: "max=100"},
	query.Field{Key: "email", Kind: query.KindString, Rule: "max=100"},
	query.Field{Key: "userType", Kind: query.KindEnum, Enum: []string{"GUEST", "PROFESSOR", "ADMIN", "ROOT"}},
	query.Field{Key: "status", Kind: query.KindEnum, Enum: []string{"ACTIVE", "INACTIVE"}},
)

// RequestsAdminFilters narrows the admin request listing. Status repeats in the query.
var RequestsAdminFilters = ApiDefaultFilters.Extend("request-admin",
	query.Field{Key: "status", Kind: query.KindEnumList, Enum: RequestStatusValues()},
)

// ReservationGroupAdminFilters narrows the admin reservation group listing.
var ReservationGroupAdminFilters = ApiDefaultFilters.Extend("reservation-group-admin",
	query.Field{Key: "status", Kind: query.KindEnumList, Enum: RequestStatusValues()},
	query.Field{Key: "search", Kind: query.KindString, Rule: "max=100"},
)

// ProfessorRequestsAdminFilters narrows the professor approval listing.
var ProfessorRequestsAdminFilters = ApiDefaultFilters.Extend("professor-admin",
	query.Field{Key: "status", Kind: query.KindEnumList, Enum: []string{
		string(RequestDocumentRequested),
		string(RequestDocumentApproved),
		string(RequestDocumentRejected),
	}},
	query.Field{Key: "search", Kind: query.KindString, Rule: "max=100"},
)

// MyReservationsFilters narrows the owner's reservation history.
var MyReservationsFilters = ApiDefaultFilters.Extend("my-reservations",
	query.Field{Key: "search", Kind: query.KindString, Rule: "max=100"},
	query.Field{Key: "status", Kind: query.KindEnum, Enum: append([]string{"all"}, ReservationStatusValues()...)},
	query.Field{Key: "startDate", Kind: query.KindString, Rule: "max=100"},
	query.Field{Key: "endDate", Kind: query.KindString, Rule: "max=100"},
)

// GroupStatusQuery is the status filter the backend accepts on the owner's group listing.
var GroupStatusQuery = query.Schema{
	Name: "group-status",
	Fields: []query.Field{
		{Key: "status", Kind: query.KindEnum, Enum: []string{
			string(GroupFilterAll), string(GroupFilterApproved), string(GroupFilterCanceled), string(GroupFilterPending),
		}, Default: string(GroupFilterAll)},
	},
}

// HighlightFilters narrows the highlight listing. Nothing is defaulted.
var HighlightFilters = query.Schema{
	Name: "highlight",
	Fields: []query.Field{
		{Key: "category", Kind: query.KindEnum, Enum: highlightCategoryValues()},
		{Key: "limit", Kind: query.KindInt, Rule: "gte=1,lte=100"},
		{Key: "page", Kind: query.KindInt, Rule: "gte=0"},
	},
}

func highlightCategoryValues() []string {
	out := make([]string, 0, len(HighlightCategories))
	for _, category := range HighlightCategories {
		out = append(out, string(category))
	}
	return out
}
