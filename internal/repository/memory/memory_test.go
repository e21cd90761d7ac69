package memory

import (
	"testing"

	"github.com/prn-tf/cinelog/internal/repository/repotest"
)

func TestUserRepository(t *testing.T) {
	repotest.RunUserRepository(t, NewDB().Repositories().User)
}

func TestMovieListRepository(t *testing.T) {
	repotest.RunMovieListRepository(t, NewDB().Repositories().MovieList)
}
