// Package sim provides an in-memory device for the firmware updater.
//
// A Board carries simulated program memory with a page buffer, a flag
// byte with a busy status, a control input and an indicator. Link connects
// a host-side port, shaped like a serial port, to the device-side byte
// transport the updater runs on.
//
// Example:
//
//	board := sim.NewBoard(sim.WithPageSize(64))
//	link := sim.NewLink()
//	defer link.Close()
//
//	go board.Emulate(ctx, link.Device())
//
//	s := sender.New(link.Host())
//	result, err := s.Send(ctx, image)
//
// Flash.InjectReadFault makes read-back return corrupted bytes so that
// verification failures can be exercised end to end.
package sim
