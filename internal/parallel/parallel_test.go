package parallel_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/matryer/is"
	"github.com/matthewmueller/anthropic/internal/parallel"
)

func TestMapPreservesOrder(t *testing.T) {
	is := is.New(t)
	inputs := []int{3, 1, 4, 1, 5, 9, 2, 6}
	outs, err := parallel.Map(context.Background(), inputs, func(ctx context.Context, in int) (string, error) {
		return strconv.Itoa(in * 10), nil
	})
	is.NoErr(err)
	is.Equal(outs, []string{"30", "10", "40", "10", "50", "90", "20", "60"})
}

func TestMapEmpty(t *testing.T) {
	is := is.New(t)
	outs, err := parallel.Map(context.Background(), nil, func(ctx context.Context, in int) (int, error) {
		return in, nil
	})
	is.NoErr(err)
	is.Equal(len(outs), 0)
}

func TestMapFirstError(t *testing.T) {
	is := is.New(t)
	boom := errors.New("boom")
	_, err := parallel.Map(context.Background(), []int{1, 2, 3}, func(ctx context.Context, in int) (int, error) {
		if in == 2 {
			return 0, boom
		}
		return in, nil
	})
	is.True(errors.Is(err, boom))
}
