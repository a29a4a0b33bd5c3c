package mocks

//go:generate mockgen -destination=engine_mock.go -package=mocks github.com/relab/fbas/engine Engine
