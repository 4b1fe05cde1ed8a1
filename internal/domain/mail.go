package domain

const (
	MailTypeCreateWorker  = "create_worker"
	MailTypeResetPassword = "reset_password"
	MailTypeCrewOffer     = "crew_offer"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateWorkerMailData struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type CrewOfferMailData struct {
	FullName  string `json:"fullName"`
	ShowName  string `json:"showName"`
	Role      string `json:"role"`
	Location  string `json:"location"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
