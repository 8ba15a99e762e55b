package pool

import "errors"

var (
	// ErrNotFound indica pool ou aposta inexistente.
	ErrNotFound = errors.New("not found")

	// ErrOpenPoolExists indica tentativa de criar um pool enquanto outro está OPEN.
	ErrOpenPoolExists = errors.New("open pool already exists")

	// ErrStaleState indica que o guard de estado da escrita condicional não bateu;
	// outro chamador transicionou o pool primeiro.
	ErrStaleState = errors.New("stale pool state")

	// ErrInvalidTransition indica um par (from, to) fora do ciclo de vida;
	// erro de chamador, nunca coagido para um passo válido.
	ErrInvalidTransition = errors.New("invalid pool state transition")

	// ErrAlreadySettled indica aposta já liquidada.
	ErrAlreadySettled = errors.New("bet already settled")

	// ErrPoolNotOpen indica aposta em pool que não está OPEN.
	ErrPoolNotOpen = errors.New("pool not open for bets")

	// ErrInvalidStake indica aposta com stake zero ou negativo.
	ErrInvalidStake = errors.New("stake must be positive")
)
