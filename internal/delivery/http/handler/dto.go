package handler

import (
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/usecase/messaging"
	"github.com/google/uuid"
)

// ProfileResponse is the flat wire shape of a profile. Variant fields that
// do not apply, or that the owner hid, are omitted.
type ProfileResponse struct {
	ID                 uuid.UUID                `json:"id"`
	Name               string                   `json:"name"`
	Image              *string                  `json:"image,omitempty"`
	Email              string                   `json:"email"`
	PersonalEmail      *string                  `json:"personalEmail,omitempty"`
	ClassYear          *int                     `json:"classYear"`
	PostGradType       domain.PostGradType      `json:"postGradType,omitempty"`
	Company            string                   `json:"company,omitempty"`
	Title              string                   `json:"title,omitempty"`
	Industry           string                   `json:"industry,omitempty"`
	School             string                   `json:"school,omitempty"`
	Program            string                   `json:"program,omitempty"`
	Discipline         string                   `json:"discipline,omitempty"`
	Country            string                   `json:"country,omitempty"`
	State              string                   `json:"state,omitempty"`
	City               string                   `json:"city,omitempty"`
	BoroughDistrict    string                   `json:"boroughDistrict,omitempty"`
	LookingForRoommate bool                     `json:"lookingForRoommate"`
	IsOnboarded        bool                     `json:"isOnboarded"`
	OnboardingStep     domain.Step              `json:"onboardingStep"`
	VisibilityOptions  domain.VisibilityOptions `json:"visibilityOptions"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

func toProfileResponse(p *domain.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Image:              p.Image,
		Email:              p.InstitutionalEmail,
		PersonalEmail:      p.PersonalEmail,
		ClassYear:          p.ClassYear,
		PostGradType:       p.PostGradType(),
		LookingForRoommate: p.LookingForRoommate,
		IsOnboarded:        p.IsOnboarded,
		OnboardingStep:     p.OnboardingStep,
		VisibilityOptions:  p.Visibility,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if resp.VisibilityOptions == nil {
		resp.VisibilityOptions = domain.VisibilityOptions{}
	}

	switch d := p.Details.(type) {
	case domain.WorkDetails:
		resp.Company, resp.Title, resp.Industry = d.Company, d.Title, d.Industry
	case domain.SchoolDetails:
		resp.School, resp.Program, resp.Discipline = d.School, d.Program, d.Discipline
	}
	if p.Location != nil {
		resp.Country = p.Location.Country
		resp.State = p.Location.State
		resp.City = p.Location.City
		resp.BoroughDistrict = p.Location.BoroughDistrict
	}
	return resp
}

func toProfileResponses(ps []*domain.Profile) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProfileResponse(p))
	}
	return out
}

type ConversationResponse struct {
	ID                  uuid.UUID `json:"id"`
	SenderID            uuid.UUID `json:"senderId"`
	ReceiverID          uuid.UUID `json:"receiverId"`
	LastMessageAt       time.Time `json:"lastMessageAt"`
	LastMessagePreview  *string   `json:"lastMessagePreview"`
	SenderUnreadCount   int       `json:"senderUnreadCount"`
	ReceiverUnreadCount int       `json:"receiverUnreadCount"`
}

func toConversationResponse(c *domain.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:                  c.ID,
		SenderID:            c.SenderID,
		ReceiverID:          c.ReceiverID,
		LastMessageAt:       c.LastMessageAt,
		LastMessagePreview:  c.LastMessagePreview,
		SenderUnreadCount:   c.SenderUnreadCount,
		ReceiverUnreadCount: c.ReceiverUnreadCount,
	}
}

type ThreadResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	OtherUser    ProfileResponse      `json:"otherUser"`
	Messages     []*domain.Message    `json:"messages"`
}

func toThreadResponse(t *messaging.Thread) ThreadResponse {
	return ThreadResponse{
		Conversation: toConversationResponse(t.Conversation),
		OtherUser:    toProfileResponse(t.Partner),
		Messages:     t.Messages,
	}
}

type InboxEntry struct {
	ConversationResponse
	OtherUserID    uuid.UUID `json:"otherUserId"`
	OtherUserName  string    `json:"otherUserName"`
	OtherUserImage *string   `json:"otherUserImage,omitempty"`
	UnreadCount    int       `json:"unreadCount"`
}

func toInbox(summaries []*domain.ConversationSummary) []InboxEntry {
	out := make([]InboxEntry, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, InboxEntry{
			ConversationResponse: toConversationResponse(s.Conversation),
			OtherUserID:          s.PartnerID,
			OtherUserName:        s.PartnerName,
			OtherUserImage:       s.PartnerImage,
			UnreadCount:          s.Unread,
		})
	}
	return out
}
