package board

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tgchan/tgchan/internal/entities"
	"github.com/tgchan/tgchan/internal/pseudonym"
)

func TestAuthorizer(t *testing.T) {
	const (
		owner  = 1000
		author = 77
	)

	h := pseudonym.New(123456, 0)
	a := Authorizer{
		Hasher: h,
		Owner:  owner,
		Salt:   func() (int64, error) { return -4321, nil },
	}

	secret, token, err := a.Issue(author)
	require.NoError(t, err)
	require.Equal(t, h.Hash(author, -4321), secret)
	require.EqualValues(t, -4321+123456, token)

	p := &entities.Post{ID: 1, Secret: secret}

	require.True(t, a.Authorize(p, author, token))
	require.False(t, a.Authorize(p, author, token+1))
	require.False(t, a.Authorize(p, author+1, token))
	require.True(t, a.Authorize(p, owner, 0))
}

func TestAuthorizer_RandomSalt(t *testing.T) {
	a := Authorizer{Hasher: pseudonym.New(5, 0), Owner: -1}

	for i := 0; i < 100; i++ {
		secret, token, err := a.Issue(10)
		require.NoError(t, err)
		require.True(t, a.Authorize(&entities.Post{Secret: secret}, 10, token))

		salt := token - 5
		require.True(t, salt >= -SaltBound && salt <= SaltBound)
	}
}

func TestAuthorizer_SaltError(t *testing.T) {
	errTest := errors.New("test")
	a := Authorizer{Hasher: pseudonym.New(5, 0), Salt: func() (int64, error) { return 0, errTest }}

	_, _, err := a.Issue(10)
	require.True(t, errors.Is(err, errTest))
}

func TestAuthorizer_NoOwner(t *testing.T) {
	a := Authorizer{Hasher: pseudonym.New(5, 0), Salt: func() (int64, error) { return 3, nil }}

	secret, _, err := a.Issue(10)
	require.NoError(t, err)

	p := &entities.Post{ID: 7, Secret: secret}
	require.False(t, a.Authorize(p, 0, 0))
	require.True(t, a.Authorize(p, 10, 8))
}
