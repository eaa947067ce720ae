package logger

import (
	"go.uber.org/zap"
)

// Field helpers shared by the pipeline so that log entries use the same keys

func Network(network string) zap.Field {
	return zap.String("network", network)
}

func Kind(kind string) zap.Field {
	return zap.String("kind", kind)
}

func Block(number int64) zap.Field {
	return zap.Int64("block_number", number)
}

func Subject(subject string) zap.Field {
	return zap.String("subject", subject)
}

func EventTypeID(id uint64) zap.Field {
	return zap.Uint64("event_type_id", id)
}

func EventID(id uint64) zap.Field {
	return zap.Uint64("event_id", id)
}

func UserID(id string) zap.Field {
	return zap.String("user_id", id)
}

func ConnectionID(id string) zap.Field {
	return zap.String("connection_id", id)
}
