package calbookv1

type ComputeFreeSlotsRequest struct {
	UserA       string `json:"user_a"`
	UserB       string `json:"user_b"`
	HorizonDays *int32 `json:"horizon_days,omitempty"`
}

type ComputeFreeSlotsResponse struct {
	HorizonDays int32       `json:"horizon_days"`
	Days        []*DaySlots `json:"days"`
}

// DaySlots carries one calendar day keyed YYYY/MM/DD.
type DaySlots struct {
	Date  string      `json:"date"`
	Slots []*FreeSlot `json:"slots"`
}

type FreeSlot struct {
	Start      *Timestamp `json:"start"`
	End        *Timestamp `json:"end"`
	StartClock string     `json:"start_clock"`
	EndClock   string     `json:"end_clock"`
}

type CheckSlotRequest struct {
	UserID          string     `json:"user_id"`
	Start           *Timestamp `json:"start"`
	DurationMinutes int32      `json:"duration_minutes"`
}

type CheckSlotResponse struct {
	Available bool `json:"available"`
}

type Appointment struct {
	ID              string     `json:"id"`
	CalendarID      string     `json:"calendar_id"`
	Name            string     `json:"name"`
	Start           *Timestamp `json:"start"`
	End             *Timestamp `json:"end"`
	DurationMinutes int32      `json:"duration_minutes"`
	CreatedAt       *Timestamp `json:"created_at,omitempty"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
}

type BookAppointmentRequest struct {
	Owner           string     `json:"owner"`
	Calendar        string     `json:"calendar"`
	Participant     string     `json:"participant,omitempty"`
	Name            string     `json:"name"`
	Start           *Timestamp `json:"start"`
	DurationMinutes int32      `json:"duration_minutes"`
}

type BookAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
	Updated     bool         `json:"updated"`
}

type CancelAppointmentRequest struct {
	Owner    string     `json:"owner"`
	Calendar string     `json:"calendar"`
	Name     string     `json:"name"`
	Start    *Timestamp `json:"start"`
}

type CancelAppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type SearchAppointmentsRequest struct {
	UserID       string     `json:"user_id"`
	NameContains string     `json:"name_contains,omitempty"`
	From         *Timestamp `json:"from,omitempty"`
	To           *Timestamp `json:"to,omitempty"`
}

type SearchAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type ExportFreeBusyRequest struct {
	UserA       string `json:"user_a"`
	UserB       string `json:"user_b"`
	HorizonDays *int32 `json:"horizon_days,omitempty"`
}

type ExportFreeBusyResponse struct {
	ICalendar string `json:"icalendar"`
}

// UserProfile renders availability the way users edit it: a Monday..Friday
// y/n mask and HH:MM bounds.
type UserProfile struct {
	Days          string `json:"days"`
	Start         string `json:"start"`
	End           string `json:"end"`
	BufferMinutes int32  `json:"buffer_minutes"`
}

type User struct {
	Name      string       `json:"name"`
	Profile   *UserProfile `json:"profile"`
	CreatedAt *Timestamp   `json:"created_at,omitempty"`
}

type CreateUserRequest struct {
	Name string `json:"name"`
}

type CreateUserResponse struct {
	User   *User  `json:"user"`
	Secret string `json:"secret"`
}

type GetUserRequest struct {
	Name string `json:"name"`
}

type GetUserResponse struct {
	User *User `json:"user"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

type UpdateAvailabilityRequest struct {
	Name          string `json:"name"`
	Days          string `json:"days,omitempty"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	BufferMinutes *int32 `json:"buffer_minutes,omitempty"`
}

type UpdateAvailabilityResponse struct {
	User *User `json:"user"`
}

type Calendar struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type CreateCalendarRequest struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type CreateCalendarResponse struct {
	Calendar *Calendar `json:"calendar"`
}

type ListCalendarAppointmentsRequest struct {
	Owner    string `json:"owner"`
	Calendar string `json:"calendar"`
}

type ListCalendarAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}
