package comm

import "context"

// allReduceTag is distinct from CommTag so an all-reduce in flight never
// collides with the discovery protocol's own ring traffic on the same
// communicator.
const allReduceTag = CommTag + 1

// RingAllReduceMax implements AllReduceMax as the same ring-rotation shape
// the discovery protocol itself uses for message circulation (spec §4.4
// never prescribes a different topology for the reduction, so this keeps
// the module to one collective shape): each rank folds in its neighbor's
// running maximum for Size()-1 hops, using the even/odd
// send-then-receive / receive-then-send ordering spec §4.4 requires to
// avoid deadlock on a synchronous send.
//
// Comm implementations call this from their own AllReduceMax rather than
// reimplementing the hop loop.
func RingAllReduceMax(ctx context.Context, c Comm, v int) (int, error) {
	size := c.Size()
	if size <= 1 {
		return v, nil
	}
	rank := c.Rank()
	running := v
	for hop := 1; hop < size; hop++ {
		out := encodeInt(running)
		var in []byte
		var err error
		if rank%2 == 0 {
			if err = c.SSend(ctx, (rank+1)%size, allReduceTag, out); err != nil {
				return 0, err
			}
			if in, err = c.Recv(ctx, (rank+size-1)%size, allReduceTag); err != nil {
				return 0, err
			}
		} else {
			if in, err = c.Recv(ctx, (rank+size-1)%size, allReduceTag); err != nil {
				return 0, err
			}
			if err = c.SSend(ctx, (rank+1)%size, allReduceTag, out); err != nil {
				return 0, err
			}
		}
		received := decodeInt(in)
		if received > running {
			running = received
		}
	}
	return running, nil
}

func encodeInt(v int) []byte {
	return []byte{
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
}

func decodeInt(b []byte) int {
	return int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
}
