package types

// Entity names used by the marketplace screens. The mock data service
// accepts any name; these are the ones the application ships fixtures for.
const (
	EntityUsers            = "users"
	EntityProducts         = "Product"
	EntityCafes            = "cafes"
	EntityHospitals        = "hospitals"
	EntityHotels           = "hotels"
	EntityAccommodations   = "accommodations"
	EntityGroomingServices = "groomingServices"
	EntityPosts            = "posts"
	EntityComments         = "comments"
	EntityInquiries        = "inquiries"
	EntityFAQs             = "faqs"
	EntityNotices          = "notices"
)

// StandardEntityNames lists the known entity names for enumeration.
var StandardEntityNames = []string{
	EntityUsers,
	EntityProducts,
	EntityCafes,
	EntityHospitals,
	EntityHotels,
	EntityAccommodations,
	EntityGroomingServices,
	EntityPosts,
	EntityComments,
	EntityInquiries,
	EntityFAQs,
	EntityNotices,
}

// User is a registered account as the admin user screen manages it.
// Passwords are stored as given; there is no security model.
type User struct {
	ID           ID     `json:"id,omitzero"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	Nickname     string `json:"nickname,omitempty"`
	Role         string `json:"role,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	JoinDate     string `json:"joinDate,omitempty"`
}

// Product is an item of the e-commerce catalog.
type Product struct {
	ID          ID      `json:"id,omitzero"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Stock       int     `json:"stock"`
	IsFeatured  bool    `json:"isFeatured"`
	IsBest      bool    `json:"isBest"`
	Brand       string  `json:"brand,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
}

// Venue holds the fields every bookable place shares.
type Venue struct {
	ID          ID      `json:"id,omitzero"`
	Name        string  `json:"name"`
	Address     string  `json:"address,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// Cafe is a pet-friendly café.
type Cafe struct {
	Venue
	PetSizes []string `json:"petSizes,omitempty"`
}

// Hospital is a veterinary hospital.
type Hospital struct {
	Venue
	Hours     string `json:"hours,omitempty"`
	Emergency bool   `json:"emergency,omitempty"`
}

// Hotel is a pet hotel.
type Hotel struct {
	Venue
	Price float64 `json:"price,omitempty"`
}

// Accommodation is pet-friendly lodging for owners and pets together.
type Accommodation struct {
	Venue
	Type  string  `json:"type,omitempty"`
	Price float64 `json:"price,omitempty"`
}

// GroomingService is a grooming salon and its menu.
type GroomingService struct {
	Venue
	Price    float64  `json:"price,omitempty"`
	Services []string `json:"services,omitempty"`
}

// Post is a community board post as the admin post screen manages it.
type Post struct {
	ID         ID     `json:"id,omitzero"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorID   int64  `json:"authorId,omitempty"`
	AuthorName string `json:"author_name,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	Views      int    `json:"views"`
	Likes      int    `json:"likes"`
}

// Comment is a community comment. PostID is not checked against posts.
type Comment struct {
	ID              ID     `json:"id,omitzero"`
	PostID          ID     `json:"postId"`
	Content         string `json:"content"`
	AuthorID        int64  `json:"authorId,omitempty"`
	AuthorName      string `json:"author_name,omitempty"`
	ParentCommentID *ID    `json:"parentCommentId"`
	CreatedAt       string `json:"createdAt,omitempty"`
	Likes           int    `json:"likes,omitempty"`
}

// Inquiry states.
const (
	InquiryPending  = "pending"
	InquiryAnswered = "answered"
	InquiryClosed   = "closed"
)

// InquiryStatuses lists the states an inquiry may be put in.
var InquiryStatuses = []string{InquiryPending, InquiryAnswered, InquiryClosed}

// Inquiry is a customer support question.
type Inquiry struct {
	ID            ID     `json:"id,omitzero"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Author        string `json:"author,omitempty"`
	Status        string `json:"status,omitempty"`
	AdminResponse string `json:"adminResponse,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// FAQ is a frequently asked question.
type FAQ struct {
	ID        ID     `json:"id,omitzero"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Category  string `json:"category,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Notice is a site announcement.
type Notice struct {
	ID        ID     `json:"id,omitzero"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Important bool   `json:"important,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
