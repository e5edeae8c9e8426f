package utils_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/utils"
)

var _ = Describe("Slice", func() {
	Describe("ContainString", func() {
		kinds := []string{"text", "voice"}

		When("string in slice", func() {
			It("should return true", func() {
				Expect(utils.ContainString(kinds, "voice")).To(BeTrue())
			})
		})
		When("string not in slice", func() {
			It("should return false", func() {
				Expect(utils.ContainString(kinds, "video")).To(BeFalse())
			})
		})
		When("slice is empty", func() {
			It("should return false", func() {
				Expect(utils.ContainString(nil, "text")).To(BeFalse())
			})
		})
	})
})
