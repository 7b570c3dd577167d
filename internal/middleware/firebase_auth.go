package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

// IDTokenVerifier is satisfied by *auth.Client.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type FirebaseUserLookup interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseVerifier verifies Firebase ID tokens and resolves the campus user they belong to.
type FirebaseVerifier struct {
	client IDTokenVerifier
	users  FirebaseUserLookup
}

func NewFirebaseVerifier(client IDTokenVerifier, users FirebaseUserLookup) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*models.Actor, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, errors.Wrap(err, "verifying firebase id token")
	}
	user, err := v.users.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		return nil, errors.Wrap(err, "resolving firebase user")
	}
	return user.Actor(), nil
}
