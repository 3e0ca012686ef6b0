package api

import (
	"reelforge-server/service"
)

// Handler collaborators, wired once from main. Handlers stay plain gin
// functions (router registration keeps working) while the provider clients
// remain constructed explicitly rather than grown as hidden singletons.
var (
	synth    *service.Synthesizer
	resolver *service.Resolver
	gate     *service.CreditGate
)

func InitDeps(s *service.Synthesizer, r *service.Resolver, g *service.CreditGate) {
	synth = s
	resolver = r
	gate = g
}
