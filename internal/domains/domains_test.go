package domains

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	known map[string][]string
	asked []string
}

func (f *fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	f.asked = append(f.asked, host)
	if addrs, ok := f.known[host]; ok {
		return addrs, nil
	}
	return nil, errors.New("no such host")
}

type slowResolver struct{}

func (slowResolver) LookupHost(ctx context.Context, _ string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAvailable(t *testing.T) {
	r := &fakeResolver{known: map[string][]string{"taken.com": {"93.184.216.34"}}}
	c := &Checker{Resolver: r, Timeout: time.Second}

	assert.False(t, c.Available(context.Background(), "taken.com"))
	assert.True(t, c.Available(context.Background(), "myshop.com"))
	assert.Equal(t, []string{"taken.com", "myshop.com"}, r.asked)
}

func TestAvailable_TimeoutCountsAsFree(t *testing.T) {
	c := &Checker{Resolver: slowResolver{}, Timeout: 10 * time.Millisecond}
	assert.True(t, c.Available(context.Background(), "slow.com"))
}

func TestFullDomain(t *testing.T) {
	assert.Equal(t, "myshop.in", FullDomain("myshop", ".in"))
	assert.Equal(t, "myshop.com", FullDomain("  MyShop ", ".com"))
}
