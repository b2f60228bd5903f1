package members

// CreateMemberPayload represents the request body for registering a member.
type CreateMemberPayload struct {
	FullName string `json:"full_name" mod:"trim" validate:"required,min=3"`
	Email    string `json:"email" mod:"trim" validate:"required,email"`
}

// ListMembersQuery represents the query parameters for listing members.
type ListMembersQuery struct {
	Limit  int `query:"limit" default:"50"`
	Offset int `query:"offset" default:"0"`
}
