package collider

import (
	"testing"

	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCollider(t *testing.T) {
	RegisterFailHandler(g.Fail)
	g.RunSpecs(t, "Collider Suite")
}
