package domain

// Part carries the catalog attributes the parts service returns for one part
// identifier. The catalog owns these fields; this service only relays them.
type Part struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Price        int    `json:"price"`
	Image        string `json:"image"`
	Trim         string `json:"trim"`
	Model        string `json:"model"`
	Category     int    `json:"category"`
	KorName      string `json:"korName"`
	EngName      string `json:"engName"`
	CategoryName string `json:"categoryName"`
	Amount       int    `json:"amount"`
	Code         string `json:"code"`
	Location     string `json:"location"`
	Cost         int    `json:"cost"`
}

// MemberProfile carries the user-service attributes for one member.
type MemberProfile struct {
	MemberID int64  `json:"memberId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}
