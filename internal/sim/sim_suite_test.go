package sim_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLayoutScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Layout Scenarios Suite")
}
