package s3gate_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestS3Gate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "s3gate Suite")
}
